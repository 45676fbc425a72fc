package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/bwa-report/cmd/batch"
	"fjacquet/bwa-report/cmd/exchange"
	"fjacquet/bwa-report/cmd/load"
	"fjacquet/bwa-report/cmd/mapping"
	"fjacquet/bwa-report/cmd/report"
	"fjacquet/bwa-report/cmd/root"

	"github.com/spf13/cobra"
)

// newRootCmd builds a fresh command tree around app.
func newRootCmd(app *root.App) *cobra.Command {
	cmd := root.New(app)
	cmd.AddCommand(
		load.NewCmd(app),
		report.NewCmd(app),
		batch.NewCmd(app),
		exchange.NewExportCmd(app),
		exchange.NewImportCmd(app),
		mapping.NewCmd(app),
	)
	return cmd
}

// execute runs one invocation with args, writing command output to stdout.
func execute(ctx context.Context, args []string, stdout io.Writer) error {
	app := &root.App{}
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	err := cmd.ExecuteContext(ctx)
	if closeErr := app.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(root.ExitCode(err))
	}
}
