// Package mapping implements the commands that edit the persisted mapping table.
package mapping

import (
	"fmt"
	"text/tabwriter"

	"fjacquet/bwa-report/cmd/root"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/parsererror"
	"fjacquet/bwa-report/internal/validation"

	"github.com/spf13/cobra"
)

// NewCmd returns the mapping command and its subcommands.
func NewCmd(app *root.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Show and edit the account mapping table",
		Long: `Show and edit the persisted mapping table: account ids map to categories
(BWA groups) and categories map to super-groups. Accounts without a mapping are
reported in the "unmapped" category.`,
	}
	cmd.AddCommand(
		newSetAccountCmd(app),
		newSetGroupCmd(app),
		newRemoveAccountCmd(app),
		newRemoveGroupCmd(app),
		newListCmd(app),
		newImportYAMLCmd(app),
		newExportYAMLCmd(app),
	)
	return cmd
}

func update(cmd *cobra.Command, app *root.App, fn func(*mapping.Table) error) error {
	_, err := app.Container.GetMappingRepository().Update(cmd.Context(), fn)
	return err
}

func newSetAccountCmd(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-account ACCOUNT CATEGORY",
		Short: "Assign a category to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := update(cmd, app, func(t *mapping.Table) error {
				return t.SetAccountMapping(args[0], args[1])
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newSetGroupCmd(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-group CATEGORY SUPER_GROUP",
		Short: "Assign a super-group to a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := update(cmd, app, func(t *mapping.Table) error {
				return t.SetSuperGroupMapping(args[0], args[1])
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newRemoveAccountCmd(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-account ACCOUNT",
		Short: "Remove the category of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return update(cmd, app, func(t *mapping.Table) error {
				if !t.RemoveAccountMapping(args[0]) {
					return &parsererror.NotFoundError{FilePath: args[0], Err: parsererror.ErrNotFound}
				}
				return nil
			})
		},
	}
}

func newRemoveGroupCmd(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-group CATEGORY",
		Short: "Remove the super-group of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return update(cmd, app, func(t *mapping.Table) error {
				if !t.RemoveSuperGroupMapping(args[0]) {
					return &parsererror.NotFoundError{FilePath: args[0], Err: parsererror.ErrNotFound}
				}
				return nil
			})
		},
	}
}

func newListCmd(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the mapping table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := app.Container.GetMappingRepository().Load(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ACCOUNT\tCATEGORY\tSUPER-GROUP")
			for _, account := range table.Accounts() {
				category := table.ResolveCategory(account)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", account, category, table.ResolveSuperGroup(category))
			}
			return tw.Flush()
		},
	}
}

func newImportYAMLCmd(app *root.App) *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "import-yaml FILE",
		Short: "Load mappings from a YAML file",
		Long: `Load mappings from a YAML file with "accounts" and "super_groups" sections.
The stored table is replaced unless --merge is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateInputFile(args[0]); err != nil {
				return err
			}
			snap, err := mapping.ReadYAML(args[0])
			if err != nil {
				return err
			}
			table, err := mapping.FromSnapshot(snap)
			if err != nil {
				return err
			}
			repo := app.Container.GetMappingRepository()
			if merge {
				table, err = repo.Update(cmd.Context(), func(t *mapping.Table) error {
					return t.Merge(snap)
				})
				if err != nil {
					return err
				}
			} else if err := repo.Save(cmd.Context(), table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d account and %d super-group mappings\n",
				table.AccountCount(), table.SuperGroupCount())
			return nil
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "Merge into the stored table instead of replacing it")
	return cmd
}

func newExportYAMLCmd(app *root.App) *cobra.Command {
	return &cobra.Command{
		Use:   "export-yaml FILE",
		Short: "Write the mapping table to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateOutputFile(args[0]); err != nil {
				return err
			}
			table, err := app.Container.GetMappingRepository().Load(cmd.Context())
			if err != nil {
				return err
			}
			return mapping.WriteYAML(args[0], table)
		},
	}
}
