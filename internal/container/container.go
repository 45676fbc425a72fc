// Package container provides dependency injection for the bwa-report application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"fjacquet/bwa-report/internal/aggregator"
	"fjacquet/bwa-report/internal/config"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/parser"
	"fjacquet/bwa-report/internal/session"
	"fjacquet/bwa-report/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
// It is immutable after creation.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	settings   store.SettingsStore
	mappings   *mapping.Repository
	loader     *parser.Loader
	aggregator *aggregator.Aggregator
}

// NewContainer creates and wires all application dependencies, opening the
// settings backend selected by cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	logger := config.ConfigureLoggingFromConfig(cfg)

	settings, err := store.Open(cfg.StoreOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	return NewContainerWithStore(cfg, logger, settings)
}

// NewContainerWithStore wires the container around an existing settings store.
// A nil logger is derived from cfg.
func NewContainerWithStore(cfg *config.Config, logger logging.Logger, settings store.SettingsStore) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings store cannot be nil")
	}
	if logger == nil {
		logger = config.ConfigureLoggingFromConfig(cfg)
	}

	loader := parser.NewLoader(ParserOptions(cfg), logger)

	logger.Debug("Container initialized",
		logging.Field{Key: logging.FieldBackend, Value: cfg.Settings.Backend})

	return &Container{
		logger:     logger,
		config:     cfg,
		settings:   settings,
		mappings:   mapping.NewRepository(settings, logger),
		loader:     loader,
		aggregator: aggregator.New(logger),
	}, nil
}

// ParserOptions converts the input section of cfg for the loader.
func ParserOptions(cfg *config.Config) parser.Options {
	return parser.Options{
		Tabular:   cfg.TabularOptions(),
		Encodings: cfg.Input.Encodings,
		Sheets:    cfg.Input.Sheets,
	}
}

// NewSession starts a session seeded with the persisted mapping table.
func (c *Container) NewSession(ctx context.Context) (*session.Session, error) {
	table, err := c.mappings.Load(ctx)
	if err != nil {
		return nil, err
	}
	return session.New(c.loader, table, c.logger), nil
}

// GetLogger returns the application logger.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the application configuration.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetSettings returns the settings store.
func (c *Container) GetSettings() store.SettingsStore {
	return c.settings
}

// GetMappingRepository returns the persisted mapping table access.
func (c *Container) GetMappingRepository() *mapping.Repository {
	return c.mappings
}

// GetLoader returns the source loader.
func (c *Container) GetLoader() *parser.Loader {
	return c.loader
}

// GetAggregator returns the period aggregator.
func (c *Container) GetAggregator() *aggregator.Aggregator {
	return c.aggregator
}

// Close releases the settings store.
func (c *Container) Close() error {
	if c.settings == nil {
		return nil
	}
	return c.settings.Close()
}
