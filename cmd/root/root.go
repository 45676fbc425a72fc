// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/bwa-report/internal/config"
	"fjacquet/bwa-report/internal/container"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/parsererror"

	"github.com/spf13/cobra"
)

// GlobalFlags are accepted by every command and override the configuration.
type GlobalFlags struct {
	ConfigFile      string
	LogLevel        string
	LogFormat       string
	SettingsBackend string
	SettingsPath    string
}

// App carries the state shared by all commands of one invocation. Container
// is set by the root command before any subcommand runs.
type App struct {
	Flags     GlobalFlags
	Container *container.Container
}

// Logger returns the application logger, or the default logger before
// initialisation.
func (a *App) Logger() logging.Logger {
	if a.Container == nil {
		return logging.Default()
	}
	return a.Container.GetLogger()
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.Container.GetConfig()
}

// Close releases the container. It is safe to call when initialisation never
// ran or failed.
func (a *App) Close() error {
	if a.Container == nil {
		return nil
	}
	err := a.Container.Close()
	a.Container = nil
	return err
}

// New builds the root command around app.
func New(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bwa-report",
		Short: "Quarterly BWA reports from bookkeeping exports.",
		Long: `bwa-report loads bookkeeping exports (CSV, XLSX or a JSON exchange document),
classifies every transaction through a persisted account mapping table and
renders quarterly or cumulative BWA summaries as PDF, CSV, text or JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initialize(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.Flags.ConfigFile, "config", "", "Config file (default: $HOME/.bwa-report/config.yaml)")
	flags.StringVar(&app.Flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&app.Flags.LogFormat, "log-format", "", "Log format (text or json)")
	flags.StringVar(&app.Flags.SettingsBackend, "settings-backend", "", "Settings backend (file, sqlite, redis, memory)")
	flags.StringVar(&app.Flags.SettingsPath, "settings-path", "", "Directory holding the settings file or database")
	return cmd
}

func (a *App) initialize(cmd *cobra.Command) error {
	config.LoadEnv(nil)
	cfg, err := config.InitializeConfig(a.Flags.ConfigFile)
	if err != nil {
		return err
	}

	if a.Flags.LogLevel != "" {
		cfg.Log.Level = a.Flags.LogLevel
	}
	if a.Flags.LogFormat != "" {
		cfg.Log.Format = a.Flags.LogFormat
	}
	if a.Flags.SettingsBackend != "" {
		cfg.Settings.Backend = a.Flags.SettingsBackend
	}
	if a.Flags.SettingsPath != "" {
		cfg.Settings.Path = a.Flags.SettingsPath
	}
	if err := cfg.Validate(); err != nil {
		return &parsererror.ValidationError{Field: "flags", Value: cmd.Name(), Reason: err.Error()}
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", err)
	}
	a.Container = c
	return nil
}

// ExitCode maps an error to the process exit status: 0 for nil, otherwise the
// code of its kind.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return parsererror.KindOf(err).ExitCode()
}
