// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/bwa-report/internal/charset"
	"fjacquet/bwa-report/internal/common"
	"fjacquet/bwa-report/internal/currencyutils"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/report"
	"fjacquet/bwa-report/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "BWA"

// DirName is the per-user configuration directory under $HOME.
const DirName = ".bwa-report"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Input struct {
		DecimalSeparator string              `mapstructure:"decimal_separator" yaml:"decimal_separator"`
		Encodings        []string            `mapstructure:"encodings" yaml:"encodings"`
		DateFormats      []string            `mapstructure:"date_formats" yaml:"date_formats"`
		Sheets           []string            `mapstructure:"sheets" yaml:"sheets"`
		ExtraAliases     map[string][]string `mapstructure:"extra_aliases" yaml:"extra_aliases"`
	} `mapstructure:"input" yaml:"input"`

	Settings struct {
		Backend   string `mapstructure:"backend" yaml:"backend"`
		Path      string `mapstructure:"path" yaml:"path"`
		RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
		RedisDB   int    `mapstructure:"redis_db" yaml:"redis_db"`
		KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`
	} `mapstructure:"settings" yaml:"settings"`

	Report struct {
		Format       string `mapstructure:"format" yaml:"format"`
		Policy       string `mapstructure:"policy" yaml:"policy"`
		Title        string `mapstructure:"title" yaml:"title"`
		Organization string `mapstructure:"organization" yaml:"organization"`
	} `mapstructure:"report" yaml:"report"`

	Output struct {
		CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
	} `mapstructure:"output" yaml:"output"`
}

// InitializeConfig loads defaults, then the config file, then BWA_* environment
// variables. An explicit configFile must exist; otherwise config.yaml is looked
// up in $HOME/.bwa-report, ./.bwa-report and the working directory.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join("$HOME", DirName))
		v.AddConfigPath(DirName)
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("input.decimal_separator", ",")
	v.SetDefault("input.encodings", charset.DefaultCandidates)
	v.SetDefault("input.date_formats", []string{})
	v.SetDefault("input.sheets", []string{})
	v.SetDefault("input.extra_aliases", map[string][]string{})

	v.SetDefault("settings.backend", store.BackendFile)
	v.SetDefault("settings.path", "")
	v.SetDefault("settings.redis_addr", "localhost:6379")
	v.SetDefault("settings.redis_db", 0)
	v.SetDefault("settings.key_prefix", store.DefaultKeyPrefix)

	v.SetDefault("report.format", string(report.FormatPDF))
	v.SetDefault("report.policy", string(models.PolicyQuarterly))
	v.SetDefault("report.title", "BWA")
	v.SetDefault("report.organization", "")

	v.SetDefault("output.csv_delimiter", ";")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if _, err := currencyutils.ParseDecimalSeparator(config.Input.DecimalSeparator); err != nil {
		return fmt.Errorf("input.decimal_separator: %w", err)
	}
	if err := charset.Validate(config.Input.Encodings); err != nil {
		return fmt.Errorf("input.encodings: %w", err)
	}
	for _, layout := range config.Input.DateFormats {
		if strings.TrimSpace(layout) == "" {
			return fmt.Errorf("input.date_formats must not contain empty layouts")
		}
	}
	for column := range config.Input.ExtraAliases {
		if _, err := common.ParseColumn(column); err != nil {
			return fmt.Errorf("input.extra_aliases: %w", err)
		}
	}

	if !knownBackend(config.Settings.Backend) {
		return fmt.Errorf("settings.backend must be one of %s, got: %s",
			strings.Join(store.Backends, ", "), config.Settings.Backend)
	}
	if config.Settings.RedisDB < 0 {
		return fmt.Errorf("settings.redis_db must not be negative, got: %d", config.Settings.RedisDB)
	}

	if _, err := report.ParseFormat(config.Report.Format); err != nil {
		return fmt.Errorf("report.format: %w", err)
	}
	if _, err := models.ParsePolicy(config.Report.Policy); err != nil {
		return fmt.Errorf("report.policy: %w", err)
	}

	if len([]rune(config.Output.CSVDelimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.Output.CSVDelimiter)
	}
	return nil
}

func knownBackend(name string) bool {
	for _, b := range store.Backends {
		if b == name {
			return true
		}
	}
	return false
}

// SettingsDir returns the directory holding persisted settings: settings.path
// when set, else $HOME/.bwa-report.
func (c *Config) SettingsDir() string {
	if c.Settings.Path != "" {
		return c.Settings.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// DecimalSeparator returns the configured input decimal separator.
func (c *Config) DecimalSeparator() rune {
	sep, err := currencyutils.ParseDecimalSeparator(c.Input.DecimalSeparator)
	if err != nil {
		return ','
	}
	return sep
}

// CSVDelimiter returns the delimiter used for CSV output.
func (c *Config) CSVDelimiter() rune {
	r := []rune(c.Output.CSVDelimiter)
	if len(r) != 1 {
		return ';'
	}
	return r[0]
}

// TabularOptions converts the input section for the table normalizer.
func (c *Config) TabularOptions() common.Options {
	opts := common.Options{
		DecimalSeparator: c.DecimalSeparator(),
		DateLayouts:      c.Input.DateFormats,
	}
	if len(c.Input.ExtraAliases) > 0 {
		opts.ExtraAliases = make(map[common.Column][]string, len(c.Input.ExtraAliases))
		for name, aliases := range c.Input.ExtraAliases {
			column, err := common.ParseColumn(name)
			if err != nil {
				continue
			}
			opts.ExtraAliases[column] = aliases
		}
	}
	return opts
}

// StoreOptions converts the settings section for store.Open. settings.path
// names a directory; the backend file name is appended to it.
func (c *Config) StoreOptions() store.Options {
	var path string
	switch c.Settings.Backend {
	case store.BackendFile:
		path = filepath.Join(c.SettingsDir(), store.DefaultSettingsFile)
	case store.BackendSQLite:
		path = filepath.Join(c.SettingsDir(), store.DefaultSQLiteFile)
	}
	return store.Options{
		Backend:   c.Settings.Backend,
		Path:      path,
		RedisAddr: c.Settings.RedisAddr,
		RedisDB:   c.Settings.RedisDB,
		KeyPrefix: c.Settings.KeyPrefix,
	}
}

// ConfigureLoggingFromConfig builds the application logger from the log section.
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	return logging.NewLogrusAdapter(config.Log.Level, config.Log.Format)
}

// Validate checks the configuration after command line overrides were applied.
func (c *Config) Validate() error {
	return validateConfig(c)
}
