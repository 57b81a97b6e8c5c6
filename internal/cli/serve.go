package cli

import (
	"github.com/spf13/cobra"

	"github.com/rogerio-castellano/stockroom/internal/app"
	"github.com/rogerio-castellano/stockroom/internal/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.New(logger.Options{
				ServiceName: "stockroom-api",
				Level:       logger.ParseLevel(cfg.Log.Level),
				Format:      cfg.Log.Format,
				Output:      cmd.ErrOrStderr(),
			})

			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
}
