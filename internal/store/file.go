package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fjacquet/bwa-report/internal/fileutils"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/validation"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the file name used when the path is a directory or empty.
const DefaultSettingsFile = "settings.yaml"

// FileStore keeps all settings in one YAML document. Every Set rewrites the
// document through a temporary file and a rename, so readers never see a
// partially written file.
type FileStore struct {
	path   string
	logger logging.Logger
	mu     sync.Mutex
	closed bool
}

// NewFileStore returns a store backed by path. A directory path or an empty
// path selects settings.yaml inside it.
func NewFileStore(path string, logger logging.Logger) (*FileStore, error) {
	if path == "" {
		path = DefaultSettingsFile
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultSettingsFile)
	}
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("error creating settings directory: %w", err)
	}
	logger = logging.OrDefault(logger)
	if info, err := os.Stat(path); err == nil {
		if err := validation.IsValidFilePermissions(info.Mode()); err != nil {
			logger.Warn("Settings file is readable by other users",
				logging.Field{Key: logging.FieldFile, Value: path},
				logging.Field{Key: logging.FieldReason, Value: err.Error()})
		}
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Path returns the settings document location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context, key, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateKey(key); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errStoreClosed
	}

	values, err := s.load()
	if err != nil {
		return "", err
	}
	if v, ok := values[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	if err := s.save(values); err != nil {
		return err
	}

	s.logger.Debug("Saved setting",
		logging.Field{Key: "key", Value: key},
		logging.Field{Key: logging.FieldFile, Value: s.path})
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading settings file: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("error parsing settings file %s: %w", s.path, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	if err := fileutils.WriteFileAtomic(s.path, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}
	return nil
}
