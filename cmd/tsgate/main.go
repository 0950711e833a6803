// Command tsgate inspects and exercises the runtime thread-safety gate:
// print the effective policy catalog, or probe what the gate would do for a
// given symbol in a given state.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"tsgate/pkg/catalog"
)

var (
	catalogPath string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "tsgate",
	Short:         "Runtime thread-safety gate inspector",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: "15:04:05",
			}),
		))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "path to a YAML catalog override file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadCatalog returns the built-in catalog, or the built-in catalog with the
// override file applied when --catalog is set.
func loadCatalog() (*catalog.Table, error) {
	if catalogPath == "" {
		return catalog.Default(), nil
	}
	table, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog overrides: %w", err)
	}
	return table, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tsgate: %v\n", err)
		os.Exit(1)
	}
}
