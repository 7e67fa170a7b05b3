package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/invoice-memory/internal/cli"
)

func learnCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "learn <original.json> <final.json>",
		Short: "Learn from a human-approved invoice",
		Long: `Compare the original invoice with its approved final version and remember
the field anchors and SKU mappings that explain the differences. The original
invoice is also recorded for duplicate detection.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := readInvoice(args[0])
			if err != nil {
				return err
			}
			final, err := readInvoice(args[1])
			if err != nil {
				return err
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := a.pipeline.Learn(cmd.Context(), original, final)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderResult(result))
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the raw JSON result")
	return cmd
}
