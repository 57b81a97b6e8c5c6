// Package cli implements stockctl, the operator command line for the inventory.
package cli

import (
	"github.com/go-extras/cobraflags"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rogerio-castellano/stockroom/internal/app"
	"github.com/rogerio-castellano/stockroom/internal/apperrors"
	"github.com/rogerio-castellano/stockroom/internal/config"
	"github.com/rogerio-castellano/stockroom/internal/logger"
)

const (
	passphraseFlag = "passphrase"
	formatFlag     = "format"
	outFlag        = "out"
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stockctl",
		Short: "Manage the product inventory from the command line",
		Long: `stockctl works on the same store as the API server.

Configuration is read from INVENTORY_* environment variables, an optional .env
file and the file named by INVENTORY_CONFIG.

Examples:
  stockctl list
  stockctl import dostawa.xlsx
  stockctl export --format xlsx --out produkty.xlsx
  stockctl reset produkty.csv --confirm
  stockctl serve`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newListCommand(),
		newImportCommand(),
		newExportCommand(),
		newResetCommand(),
		newServeCommand(),
	)
	return root
}

func passphraseOption() cobraflags.Flag {
	return &cobraflags.StringFlag{
		Name:  passphraseFlag,
		Value: "",
		Usage: "Gate passphrase; defaults to INVENTORY_GATE_PASSPHRASE",
	}
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

// openInventory builds the application for a one-shot command and unlocks its
// gate with the given passphrase, falling back to the configured plain one.
// Only a hash is known when INVENTORY_GATE_PASSPHRASE_HASH is set, so the
// passphrase must then come from the flag.
func openInventory(cmd *cobra.Command, passphrase string) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if passphrase == "" && cfg.Gate.PassphraseHash != "" {
		return nil, apperrors.New(apperrors.CodeAuthRejected,
			"INVENTORY_GATE_PASSPHRASE_HASH is set; pass the passphrase with --passphrase")
	}
	log := logger.New(logger.Options{
		ServiceName: "stockctl",
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      "console",
		Output:      cmd.ErrOrStderr(),
	})

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return nil, err
	}

	secret := passphrase
	if secret == "" {
		secret = cfg.Gate.Passphrase
	}
	if !a.Service.TryUnlock(cmd.Context(), secret) {
		_ = a.Close()
		return nil, apperrors.New(apperrors.CodeAuthRejected, "invalid passphrase")
	}
	return a, nil
}
