// Package batch handles batch processing of files
package batch

import (
	"fmt"

	"fjacquet/bwa-report/cmd/common"
	"fjacquet/bwa-report/cmd/root"
	"fjacquet/bwa-report/internal/batch"
	"fjacquet/bwa-report/internal/parsererror"
	"fjacquet/bwa-report/internal/validation"

	"github.com/spf13/cobra"
)

type options struct {
	inputDir  string
	outputDir string
	format    string
	quarter   int
	policy    string
	year      int
}

// NewCmd returns the batch command.
func NewCmd(app *root.App) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Batch process every file of a directory",
		Long: `Batch process files from an input directory into reports in another directory.
One report is rendered per supported file (.csv, .txt, .xlsx, .xlsm, .json).
Files that fail to load are listed and the others are still processed.

Example:
  bwa-report batch -i exports/ -o reports/ -f csv --policy cumulative --year 2024`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.inputDir, "input", "i", "", "Input directory")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format (pdf, csv, text, json)")
	cmd.Flags().IntVarP(&opts.quarter, "quarter", "q", 0, "Quarter 1-4, 0 for all four")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "quarterly or cumulative")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Restrict to one year (0 matches every year)")
	return cmd
}

func run(cmd *cobra.Command, app *root.App, opts *options) error {
	if opts.outputDir == "" {
		return &parsererror.ValidationError{Field: "output", Reason: "output directory is required"}
	}
	if err := validation.ValidateInputDir(opts.inputDir); err != nil {
		return err
	}
	cfg := app.Config()
	format, err := common.Format(opts.format, cfg)
	if err != nil {
		return err
	}
	policy, err := common.Policy(opts.policy, cfg)
	if err != nil {
		return err
	}
	year, err := common.YearFilter(opts.year)
	if err != nil {
		return err
	}

	c := app.Container
	table, err := c.GetMappingRepository().Load(cmd.Context())
	if err != nil {
		return err
	}

	processor := batch.NewProcessor(c.GetLoader(), c.GetAggregator(), c.GetLogger())
	results, err := processor.Run(cmd.Context(), batch.Job{
		InputDir:  opts.inputDir,
		OutputDir: opts.outputDir,
		Format:    format,
		Quarter:   opts.quarter,
		Policy:    policy,
		Year:      year,
		Table:     table,
		Template:  common.ReportTemplate(cfg, policy, year),
	})
	if err != nil {
		return err
	}

	failed := 0
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "FAILED  %s: %v\n", r.Input, r.Err)
			continue
		}
		fmt.Fprintf(out, "OK      %s -> %s (%d transactions)\n", r.Input, r.Output, r.Transactions)
	}
	fmt.Fprintf(out, "%d of %d files processed\n", len(results)-failed, len(results))
	if failed > 0 && failed == len(results) {
		return results[0].Err
	}
	return nil
}
