// Package store provides the persisted key/value settings used for the mapping
// table and report configuration. Components receive a SettingsStore through
// their constructor; there is no process-wide instance.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/parsererror"
)

// SettingsStore is a durable key/value blob store.
type SettingsStore interface {
	// Get returns the value stored under key, or def when the key is absent.
	Get(ctx context.Context, key, def string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Backends lists the known backend names.
var Backends = []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}

var errStoreClosed = errors.New("settings store is closed")

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Path      string
	RedisAddr string
	RedisDB   int
	KeyPrefix string
}

// Open creates the backend named by opts.Backend.
func Open(opts Options, logger logging.Logger) (SettingsStore, error) {
	logger = logging.OrDefault(logger)
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendFile
	}

	var (
		s   SettingsStore
		err error
	)
	switch backend {
	case BackendFile:
		s, err = NewFileStore(opts.Path, logger)
	case BackendSQLite:
		s, err = NewSQLiteStore(opts.Path, logger)
	case BackendRedis:
		s, err = NewRedisStore(opts.RedisAddr, opts.RedisDB, opts.KeyPrefix, logger)
	case BackendMemory:
		s = NewMemoryStore()
	default:
		return nil, &parsererror.ValidationError{
			Field:  "settings.backend",
			Value:  opts.Backend,
			Reason: fmt.Sprintf("must be one of %s", strings.Join(Backends, ", ")),
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Opened settings store",
		logging.Field{Key: logging.FieldBackend, Value: backend},
		logging.Field{Key: logging.FieldFile, Value: opts.Path})
	return s, nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return &parsererror.ValidationError{Field: "settings key", Value: key, Reason: "must not be empty"}
	}
	return nil
}
