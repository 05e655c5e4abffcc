package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magnetcad/pipeline/taxonomy"
)

func gateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate <phase>",
		Short: "Run a phase and report whether it can advance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := taxonomy.ParsePhaseID(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad phase %q: %v\n", args[0], err)
				os.Exit(exitBadArguments)
			}

			p, err := loadPipelineAndRestore()
			if err != nil {
				fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
				os.Exit(exitExecError)
			}

			exState, err := p.executor().Run(context.Background(), phase)
			if err != nil {
				fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
				os.Exit(exitExecError)
			}
			if exState.HadFatalError {
				os.Exit(exitExecError)
			}

			status := p.agg.Evaluate(phase, p.store, exState.Results)

			data, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling gate status: %w", err)
			}
			fmt.Println(string(data))

			if !status.CanAdvance {
				os.Exit(exitGateBlocked)
			}
			return nil
		},
	}
	return cmd
}
