package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/invoice-memory/internal/cli"
	"github.com/Veraticus/invoice-memory/internal/common"
	"github.com/Veraticus/invoice-memory/internal/model"
)

func processCmd() *cobra.Command {
	var (
		dir        string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "process [invoice.json...]",
		Short: "Run invoices through the correction pipeline",
		Long: `Process one or more invoice JSON files. With --dir every *.json file in the
directory is processed in name order. Memory is not updated; use 'invmem learn'
with the approved version to teach the engine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := invoiceFiles(args, dir)
			if err != nil {
				return err
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Processing interrupted. Invoices already processed are listed below.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			var bar *progressbar.ProgressBar
			if len(files) > 1 && !jsonOutput {
				bar = cli.NewProgress(cmd.ErrOrStderr(), len(files), "Processing invoices...")
			}

			results := make([]*model.ProcessingResult, 0, len(files))
			for _, path := range files {
				if ctx.Err() != nil {
					break
				}

				invoice, err := readInvoice(path)
				if err != nil {
					return err
				}
				result, err := a.pipeline.Process(ctx, invoice)
				if err != nil {
					return fmt.Errorf("failed to process %s: %w", path, err)
				}
				results = append(results, result)

				if bar != nil {
					_ = bar.Add(1)
				}
			}

			if handler.WasInterrupted() {
				slog.Warn("Processing interrupted", "processed", len(results), "total", len(files))
			}

			if jsonOutput {
				return writeJSON(cmd, results)
			}
			return printResults(cmd, results)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "process every *.json file in this directory")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print raw JSON results")

	return cmd
}

// invoiceFiles resolves the files to process from args or dir.
func invoiceFiles(args []string, dir string) ([]string, error) {
	if dir == "" {
		if len(args) == 0 {
			return nil, common.NewUserError("no invoices given", fmt.Errorf("%w: pass files or --dir", common.ErrInvalidInput))
		}
		return args, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	files := append([]string{}, args...)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, common.NewUserError(fmt.Sprintf("no *.json invoices in %s", dir), common.ErrNotFound)
	}
	return files, nil
}

func printResults(cmd *cobra.Command, results []*model.ProcessingResult) error {
	out := cmd.OutOrStdout()
	counts := map[string]int{}
	for _, result := range results {
		counts[cli.ResultStatus(result)]++
		if _, err := fmt.Fprintln(out, cli.RenderResult(result)); err != nil {
			return err
		}
	}

	if len(results) > 1 {
		summary := fmt.Sprintf("%d processed: %d auto-approved, %d need review, %d duplicates",
			len(results), counts[cli.StatusApproved], counts[cli.StatusReview], counts[cli.StatusDuplicate])
		if _, err := fmt.Fprintln(out, cli.FormatInfo(summary)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
