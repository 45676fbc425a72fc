// Package config loads the application configuration and the optional .env file.
package config

import (
	"os"
	"path/filepath"
	"sync"

	"fjacquet/bwa-report/internal/logging"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

// LoadEnv loads environment variables from a .env file in the working
// directory or $HOME/.bwa-report, if one exists. Variables already set in
// the environment take precedence.
func LoadEnv(logger logging.Logger) {
	logger = logging.OrDefault(logger)
	envOnce.Do(func() {
		candidates := []string{".env"}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, filepath.Join(home, DirName, ".env"))
		}
		for _, envFile := range candidates {
			if _, err := os.Stat(envFile); err != nil {
				continue
			}
			if err := godotenv.Load(envFile); err != nil {
				logger.WithError(err).Warn("Error loading .env file")
				return
			}
			logger.Debug("Loaded environment variables", logging.Field{Key: logging.FieldFile, Value: envFile})
			return
		}
	})
}

// GetEnv retrieves an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return value
}
