// Package exchange implements the export and import commands for the JSON
// exchange document.
package exchange

import (
	"fmt"

	"fjacquet/bwa-report/cmd/common"
	"fjacquet/bwa-report/cmd/root"
	"fjacquet/bwa-report/internal/exchange"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/parsererror"
	"fjacquet/bwa-report/internal/validation"

	"github.com/spf13/cobra"
)

type exportOptions struct {
	inputs []string
	kind   string
	output string
}

// NewExportCmd returns the export command.
func NewExportCmd(app *root.App) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write inputs and the mapping table as a JSON exchange document",
		Long: `Load the input files and write their transactions together with the current
mapping table as one JSON exchange document. Loading that document again yields
the same transactions and the same classification.

Example:
  bwa-report export -i kasse.xlsx -i bank.csv -o bwa-2024.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, app, opts)
		},
	}
	cmd.Flags().StringSliceVarP(&opts.inputs, "input", "i", nil, "Input file (repeatable)")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "Force the source kind (csv, xlsx, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Exchange document to write")
	return cmd
}

func runExport(cmd *cobra.Command, app *root.App, opts *exportOptions) error {
	if err := validation.ValidateOutputFile(opts.output); err != nil {
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
	if err := exchange.WriteFile(opts.output, snap.Transactions, snap.Mapping); err != nil {
		return err
	}
	c.GetLogger().Info("Exported exchange document",
		logging.Field{Key: logging.FieldOutputFile, Value: opts.output},
		logging.Field{Key: logging.FieldCount, Value: len(snap.Transactions)})
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions and %d mappings to %s\n",
		len(snap.Transactions), snap.Mapping.Len(), opts.output)
	return nil
}

type importOptions struct {
	input string
	merge bool
}

// NewImportCmd returns the import command.
func NewImportCmd(app *root.App) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Persist the mapping table of a JSON exchange document",
		Long: `Read a JSON exchange document and store its mapping table in the settings
backend. By default the stored table is replaced; with --merge the document's
entries are added to it and win on conflicts.

Example:
  bwa-report import -i bwa-2024.json --merge`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, app, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Exchange document to read")
	cmd.Flags().BoolVar(&opts.merge, "merge", false, "Merge into the stored table instead of replacing it")
	return cmd
}

func runImport(cmd *cobra.Command, app *root.App, opts *importOptions) error {
	if opts.input == "" {
		return &parsererror.ValidationError{Field: "input", Reason: "an exchange document is required (-i)"}
	}
	if err := validation.ValidateInputFile(opts.input); err != nil {
		return err
	}
	_, table, err := exchange.ReadFile(opts.input)
	if err != nil {
		return err
	}
	stored, err := persist(cmd, app, table, opts.merge)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d account and %d super-group mappings\n",
		stored.AccountCount(), stored.SuperGroupCount())
	return nil
}

func persist(cmd *cobra.Command, app *root.App, table *mapping.Table, merge bool) (*mapping.Table, error) {
	repo := app.Container.GetMappingRepository()
	if !merge {
		if err := repo.Save(cmd.Context(), table); err != nil {
			return nil, err
		}
		return table, nil
	}
	return repo.Update(cmd.Context(), func(t *mapping.Table) error {
		return t.Merge(table.Export())
	})
}
