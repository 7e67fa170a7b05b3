package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/invoice-memory/internal/cli"
	"github.com/Veraticus/invoice-memory/internal/common"
)

func correctionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corrections",
		Short: "Inspect correction memory",
	}

	cmd.AddCommand(correctionsListCmd())
	cmd.AddCommand(correctionsResolveCmd())

	return cmd
}

func correctionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List learned context to correction mappings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderCorrections(a.store.Snapshot().Corrections))
			return err
		},
	}
}

func correctionsResolveCmd() *cobra.Command {
	var success, failure bool

	cmd := &cobra.Command{
		Use:   "resolve <context>",
		Short: "Record whether an applied correction was right",
		Example: `  invmem corrections resolve "description=Transport fee" --success
  invmem corrections resolve "description=Transport fee" --failure`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if success == failure {
				return common.NewUserError("pass exactly one of --success or --failure", common.ErrInvalidInput)
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.store.RecordResolution(cmd.Context(), args[0], success); err != nil {
				return err
			}

			correction, _ := a.store.FindCorrection(args[0])
			_, err = fmt.Fprintln(cmd.OutOrStdout(),
				cli.FormatSuccess(fmt.Sprintf("%s → %s now at %.2f", correction.Context, correction.Correction, correction.Confidence)))
			return err
		},
	}

	cmd.Flags().BoolVar(&success, "success", false, "the correction was right")
	cmd.Flags().BoolVar(&failure, "failure", false, "the correction was wrong")
	return cmd
}
