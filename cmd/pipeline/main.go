package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes per spec.md §6.
const (
	exitOK           = 0
	exitGateBlocked  = 2
	exitExecError    = 3
	exitBadArguments = 4
)

var (
	configPath string
	inputFile  string
)

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Drive the naval-architecture validator pipeline",
	Long: `pipeline runs validators over a state store, evaluates phase gates, and
inspects or persists the store's contents. It is a thin front-end: every
command is a direct composition of the registry, topology, executor, and
aggregator packages, with no behavior of its own.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "pipeline.yaml", "path to a pipeline.yaml configuration file")
	rootCmd.PersistentFlags().StringVar(&inputFile, "in", "", "restore the state store from this snapshot file before running")

	rootCmd.AddCommand(
		runCmd(),
		gateCmd(),
		showCmd(),
		snapshotCmd(),
		restoreCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitBadArguments)
	}
}

func loadPipelineAndRestore() (*pipeline, error) {
	p, err := newPipeline(configPath)
	if err != nil {
		return nil, err
	}
	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", inputFile, err)
		}
		if err := p.store.Restore(data); err != nil {
			return nil, fmt.Errorf("restoring snapshot %s: %w", inputFile, err)
		}
	}
	return p, nil
}
