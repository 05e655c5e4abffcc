package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magnetcad/pipeline/state"
)

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Print the current value and metadata stored at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := state.NewPath(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad path %q: %v\n", args[0], err)
				os.Exit(exitBadArguments)
			}

			p, err := loadPipelineAndRestore()
			if err != nil {
				fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
				os.Exit(exitExecError)
			}

			value := p.store.Get(path, state.Null())
			md, known := p.store.Metadata(path)

			out := struct {
				Path     string         `json:"path"`
				Value    state.Value    `json:"value"`
				Known    bool           `json:"known"`
				Metadata *state.Metadata `json:"metadata,omitempty"`
			}{
				Path:  string(path),
				Value: value,
				Known: known,
			}
			if known {
				out.Metadata = &md
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling value: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
	return cmd
}
