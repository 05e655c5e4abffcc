package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magnetcad/pipeline/taxonomy"
)

func runCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "run <phase>",
		Short: "Run every ready validator for a phase",
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

			exec := p.executor()
			exState, err := exec.Run(context.Background(), phase)
			if err != nil {
				fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
				os.Exit(exitExecError)
			}

			data, err := json.MarshalIndent(exState, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling execution state: %w", err)
			}
			if outFile != "" {
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", outFile, err)
				}
			}
			fmt.Println(string(data))

			if exState.HadFatalError {
				os.Exit(exitExecError)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "write the execution state as JSON to this file")
	return cmd
}
