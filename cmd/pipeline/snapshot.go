package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magnetcad/pipeline/taxonomy"
)

func snapshotCmd() *cobra.Command {
	var phaseArg string

	cmd := &cobra.Command{
		Use:   "snapshot <file>",
		Short: "Write the state store to a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadPipelineAndRestore()
			if err != nil {
				fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
				os.Exit(exitExecError)
			}

			if phaseArg != "" {
				phase, err := taxonomy.ParsePhaseID(phaseArg)
				if err != nil {
					fmt.Fprintf(os.Stderr, "bad phase %q: %v\n", phaseArg, err)
					os.Exit(exitBadArguments)
				}
				exState, err := p.executor().Run(context.Background(), phase)
				if err != nil {
					fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
					os.Exit(exitExecError)
				}
				if exState.HadFatalError {
					os.Exit(exitExecError)
				}
			}

			data, err := p.store.Snapshot()
			if err != nil {
				return fmt.Errorf("building snapshot: %w", err)
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			fmt.Printf("wrote snapshot to %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&phaseArg, "phase", "", "run this phase before snapshotting")
	return cmd
}
