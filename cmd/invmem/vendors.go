package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/invoice-memory/internal/cli"
	"github.com/Veraticus/invoice-memory/internal/common"
)

func vendorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Inspect and manage vendor memory",
		Long:  `View learned vendor field anchors and manage vendor defaults.`,
	}

	cmd.AddCommand(vendorsListCmd())
	cmd.AddCommand(vendorsShowCmd())
	cmd.AddCommand(vendorsSetDefaultCmd())

	return cmd
}

func vendorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all vendor patterns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderVendors(a.store.Snapshot()))
			return err
		},
	}
}

func vendorsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <vendor>",
		Short: "Show what is known about one vendor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			vendor, ok := a.store.VendorMemory(args[0])
			if !ok {
				return common.NewUserError(fmt.Sprintf("vendor %q has no memory", args[0]), common.ErrNotFound)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderVendor(vendor))
			return err
		},
	}
}

func vendorsSetDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default <vendor> <field> <value>",
		Short: "Set a fallback value for a vendor field",
		Long: `Set a value used when an invoice from this vendor lacks the field.
Currently the currency default is applied during processing.`,
		Example: `  invmem vendors set-default "Parts AG" currency EUR`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.store.UpdateVendorDefault(cmd.Context(), args[0], args[1], args[2]); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(),
				cli.FormatSuccess(fmt.Sprintf("Default %s for %s set to %s", args[1], args[0], args[2])))
			return err
		},
	}
}
