package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/rogerio-castellano/stockroom/internal/alert"
	"github.com/rogerio-castellano/stockroom/internal/inventory"
	"github.com/rogerio-castellano/stockroom/internal/tabular"
)

func newListCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		passphraseFlag: passphraseOption(),
	}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every product, marking low stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openInventory(cmd, flags[passphraseFlag].GetString())
			if err != nil {
				return err
			}
			defer a.Close()

			views, err := a.Service.ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			return printProducts(cmd.OutOrStdout(), views)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func printProducts(out io.Writer, views []inventory.ProductView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQUANTITY\tTHRESHOLD\tLOCATION\tPRICE\tLOW")
	for _, v := range views {
		threshold := "-"
		if v.AlertThreshold != nil {
			threshold = strconv.Itoa(*v.AlertThreshold)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			v.ID, v.Name, v.Quantity, threshold, v.Location, v.Price.StringFixed(2), alert.Marker(v.LowStock))
	}
	return tw.Flush()
}

func newImportCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		passphraseFlag: passphraseOption(),
		formatFlag: &cobraflags.StringFlag{
			Name:  formatFlag,
			Value: "",
			Usage: "csv or xlsx; defaults to the file extension",
		},
	}
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Add one product per row of a CSV or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, format, err := readInput(args[0], flags[formatFlag].GetString())
			if err != nil {
				return err
			}

			a, err := openInventory(cmd, flags[passphraseFlag].GetString())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Service.ImportFrom(cmd.Context(), data, format)
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), "imported", result)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newExportCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		passphraseFlag: passphraseOption(),
		formatFlag: &cobraflags.StringFlag{
			Name:  formatFlag,
			Value: string(tabular.FormatCSV),
			Usage: "csv or xlsx",
		},
		outFlag: &cobraflags.StringFlag{
			Name:  outFlag,
			Value: "",
			Usage: "Output file; stdout when empty",
		},
	}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every product to CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := flags[outFlag].GetString()
			source := flags[formatFlag].GetString()
			if out != "" && !cmd.Flags().Changed(formatFlag) && filepath.Ext(out) != "" {
				source = out
			}
			format, err := tabular.ParseFormat(source)
			if err != nil {
				return err
			}

			a, err := openInventory(cmd, flags[passphraseFlag].GetString())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.Service.ExportTo(cmd.Context(), format)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", out)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newResetCommand() *cobra.Command {
	var confirm, demo bool
	flags := map[string]cobraflags.Flag{
		passphraseFlag: passphraseOption(),
		formatFlag: &cobraflags.StringFlag{
			Name:  formatFlag,
			Value: "",
			Usage: "csv or xlsx; defaults to the file extension",
		},
	}
	cmd := &cobra.Command{
		Use:   "reset [FILE]",
		Short: "Delete every product and load FILE (or the demo data) instead",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("reset deletes every product; repeat with --confirm")
			}
			if demo == (len(args) == 1) {
				return fmt.Errorf("give either a FILE or --demo")
			}

			a, err := openInventory(cmd, flags[passphraseFlag].GetString())
			if err != nil {
				return err
			}
			defer a.Close()

			var result inventory.BatchResult
			if demo {
				seed := a.Config.Import.SeedFile
				if seed == "" {
					return fmt.Errorf("no demo data configured; set INVENTORY_IMPORT_SEED_FILE")
				}
				result, err = a.Service.ResetFromFile(cmd.Context(), seed)
			} else {
				var (
					data   []byte
					format tabular.Format
				)
				data, format, err = readInput(args[0], flags[formatFlag].GetString())
				if err != nil {
					return err
				}
				result, err = a.Service.ResetFrom(cmd.Context(), data, format)
			}
			if err != nil {
				return err
			}
			printBatch(cmd.OutOrStdout(), "loaded", result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm that every existing product will be deleted")
	cmd.Flags().BoolVar(&demo, "demo", false, "Load the configured demo data set")
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func readInput(path, format string) ([]byte, tabular.Format, error) {
	if format == "" {
		format = path
	}
	f, err := tabular.ParseFormat(format)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	return data, f, nil
}

func printBatch(out io.Writer, verb string, result inventory.BatchResult) {
	fmt.Fprintf(out, "%s %d rows, %d failed\n", verb, result.Succeeded, result.Failed)
	for _, f := range result.Failures {
		fmt.Fprintf(out, "  %s\n", f.Error())
	}
}
