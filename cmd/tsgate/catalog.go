package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tsgate/pkg/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the effective policy table",
	Long: `Print the effective policy table: every intercepted symbol with the
policy applied to it once the process has become multi-threaded, after any
--catalog overrides.`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	table, err := loadCatalog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tPOLICY\tREASON")

	counts := map[catalog.Policy]int{}
	for _, entry := range table.Entries() {
		counts[entry.Policy]++
		fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Symbol, entry.Policy, entry.Reason)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write catalog table: %w", err)
	}

	fmt.Printf("\n%d symbols: %d abort, %d substitute, %d forward\n",
		table.Len(),
		counts[catalog.PolicyAbort],
		counts[catalog.PolicySubstitute],
		counts[catalog.PolicyForward])
	return nil
}
