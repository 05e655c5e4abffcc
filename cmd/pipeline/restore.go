package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func restoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Load a snapshot file into a fresh state store and report its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
				os.Exit(exitExecError)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "reading %s: %v\n", args[0], err)
				os.Exit(exitBadArguments)
			}
			if err := p.store.Restore(data); err != nil {
				fmt.Fprintf(os.Stderr, "restoring %s: %v\n", args[0], err)
				os.Exit(exitExecError)
			}

			paths := p.store.Paths()
			fmt.Printf("restored %d path(s) from %s\n", len(paths), args[0])
			for _, path := range paths {
				fmt.Printf("  %s\n", path)
			}
			return nil
		},
	}
	return cmd
}
