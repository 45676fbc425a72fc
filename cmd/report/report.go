// Package report implements the report command.
package report

import (
	"fjacquet/bwa-report/cmd/common"
	"fjacquet/bwa-report/cmd/root"

	"github.com/spf13/cobra"
)

type options struct {
	inputs       []string
	kind         string
	quarter      int
	policy       string
	year         int
	format       string
	output       string
	title        string
	organization string
}

// NewCmd returns the report command.
func NewCmd(app *root.App) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate inputs into a BWA report",
		Long: `Load the input files, classify them with the persisted mapping table (or the
mapping carried by a JSON exchange document) and render the period summaries.

Examples:
  bwa-report report -i 2024.csv -q 2 --policy cumulative --year 2024 -f pdf -o q2.pdf
  bwa-report report -i kasse.xlsx -i bank.csv -f text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.inputs, "input", "i", nil, "Input file (repeatable)")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "Force the source kind (csv, xlsx, json)")
	cmd.Flags().IntVarP(&opts.quarter, "quarter", "q", 0, "Quarter 1-4, 0 for all four")
	cmd.Flags().StringVar(&opts.policy, "policy", "", "quarterly or cumulative")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Restrict to one year (0 matches every year)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Report format (pdf, csv, text, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file, stdout when omitted (not for pdf)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Report title")
	cmd.Flags().StringVar(&opts.organization, "organization", "", "Organization name")
	return cmd
}

func run(cmd *cobra.Command, app *root.App, opts *options) error {
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
	sources, err := common.Sources(opts.inputs, opts.kind)
	if err != nil {
		return err
	}

	c := app.Container
	sess, err := c.NewSession(cmd.Context())
	if err != nil {
		return err
	}
	if _, err := sess.Load(cmd.Context(), sources...); err != nil {
		return err
	}
	snap := sess.Snapshot()
	summaries, err := c.GetAggregator().Summaries(snap.Transactions, snap.Mapping, opts.quarter, policy, year)
	if err != nil {
		return err
	}

	rep := common.ReportTemplate(cfg, policy, year)
	if opts.title != "" {
		rep.Title = opts.title
	}
	if opts.organization != "" {
		rep.Organization = opts.organization
	}
	rep.Periods = summaries
	for _, s := range snap.Sources {
		rep.Sources = append(rep.Sources, s.Source)
	}
	return common.WriteReport(cmd.OutOrStdout(), format, rep, opts.output, c.GetLogger())
}
