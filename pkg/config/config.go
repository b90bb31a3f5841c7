// Package config loads CLI configuration from the environment, with
// optional .env file support.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the fabplan CLI.
type Config struct {
	DBPath    string
	OutputDir string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	return Config{
		DBPath:    getEnv("FABPLAN_DB_PATH", ""),
		OutputDir: getEnv("FABPLAN_OUTPUT_DIR", ""),
		LogLevel:  getEnv("FABPLAN_LOG_LEVEL", "info"),
		LogFormat: getEnv("FABPLAN_LOG_FORMAT", "console"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
