package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tsgate/internal/gate"
)

var (
	probeEnable      bool
	probeCall        bool
	probeDecisionLog string
)

var probeCmd = &cobra.Command{
	Use:   "probe <symbol> [args...]",
	Short: "Report what the gate would do for a symbol",
	Long: `Report what the gate would do for a symbol. The engine is initialized
from the current environment and stays in the disabled state unless --enable is
given. With --call the symbol is actually dispatched, with the remaining
arguments passed as strings; an enabled abort-policy symbol terminates the
process the way an interposed caller would be terminated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().BoolVar(&probeEnable, "enable", false, "enable gating before probing")
	probeCmd.Flags().BoolVar(&probeCall, "call", false, "dispatch the symbol instead of only deciding")
	probeCmd.Flags().StringVar(&probeDecisionLog, "decision-log", "", "append enabled-state decisions to this JSON-lines file")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	symbol := args[0]

	table, err := loadCatalog()
	if err != nil {
		return err
	}
	decisions, err := gate.NewDecisionLog(probeDecisionLog)
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	defer decisions.Close()

	engine := gate.New(
		gate.WithCatalog(table),
		gate.WithDecisionLog(decisions),
	)
	engine.Initialize(os.Environ())
	if probeEnable {
		engine.Enable()
	}

	policy, gated := engine.Decide(symbol)
	slog.Info("probe decision",
		"symbol", symbol,
		"policy", policy.String(),
		"gated", gated,
		"catalogued", table.Has(symbol))

	if !probeCall {
		fmt.Printf("%s: %s (gated=%v)\n", symbol, policy, gated)
		return nil
	}

	callArgs := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		callArgs = append(callArgs, a)
	}

	result, err := engine.Call(symbol, callArgs...)
	if err != nil {
		return fmt.Errorf("dispatch %s: %w", symbol, err)
	}
	fmt.Printf("%s => %v\n", symbol, result)
	return nil
}
