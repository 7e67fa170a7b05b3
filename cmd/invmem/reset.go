package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/invoice-memory/internal/cli"
)

func resetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all learned memory",
		Long: `Reset removes every vendor pattern, correction mapping and duplicate record.

This is a destructive operation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if !force {
				snapshot := a.store.Snapshot()
				if _, err := fmt.Fprintf(cmd.OutOrStdout(),
					"This will delete memory for %d vendors, %d corrections and %d recorded invoices.\n",
					len(snapshot.Vendors), len(snapshot.Corrections), len(snapshot.ProcessedInvoices)); err != nil {
					return err
				}

				ok, err := cli.Confirm(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), "Are you sure you want to continue?")
				if err != nil && !errors.Is(err, cli.ErrInputCancelled) {
					return err
				}
				if !ok {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "Reset canceled.")
					return err
				}
			}

			if err := a.pipeline.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear memory: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Memory cleared"))
			return err
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}
