package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/invoice-memory/internal/common"
)

func memoryCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Print the memory snapshot",
		Long:  `Print everything the engine has learned as JSON (default) or YAML.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			snapshot := a.store.Snapshot()
			switch output {
			case "json":
				return writeJSON(cmd, snapshot)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(snapshot); err != nil {
					return fmt.Errorf("failed to encode snapshot: %w", err)
				}
				return enc.Close()
			default:
				return common.NewUserError("output must be json or yaml", fmt.Errorf("%w: %q", common.ErrInvalidInput, output))
			}
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")
	return cmd
}
