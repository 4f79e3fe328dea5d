// Package config loads runtime settings from DRIFT_-prefixed environment
// variables, with a local .env file as a development convenience.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	APIPort  int    `env:"DRIFT_PORT" envDefault:"8080"`
	LogLevel string `env:"DRIFT_LOG_LEVEL" envDefault:"info"`

	DBPath string `env:"DRIFT_DB_PATH" envDefault:"driftbooks.db"`

	OpenLibraryBaseURL string        `env:"DRIFT_OPENLIBRARY_BASE_URL" envDefault:"https://openlibrary.org"`
	GoogleBooksBaseURL string        `env:"DRIFT_GOOGLEBOOKS_BASE_URL" envDefault:"https://www.googleapis.com/books/v1"`
	GoogleBooksAPIKey  string        `env:"DRIFT_GOOGLEBOOKS_API_KEY"`
	ProviderTimeout    time.Duration `env:"DRIFT_PROVIDER_TIMEOUT" envDefault:"10s"`

	GeminiAPIKey      string `env:"DRIFT_GEMINI_API_KEY"`
	UseHeuristicVibes bool   `env:"DRIFT_USE_HEURISTIC_VIBES" envDefault:"false"`

	MinioEndpoint  string `env:"DRIFT_MINIO_ENDPOINT"`
	MinioAccessKey string `env:"DRIFT_MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"DRIFT_MINIO_SECRET_KEY"`
	MinioBucket    string `env:"DRIFT_MINIO_BUCKET" envDefault:"driftbooks"`
	MinioPublicURL string `env:"DRIFT_MINIO_PUBLIC_URL"`
	MinioUseSSL    bool   `env:"DRIFT_MINIO_USE_SSL" envDefault:"false"`
}

func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("DRIFT_PORT must be between 1 and 65535")
	}

	if c.DBPath == "" {
		return fmt.Errorf("DRIFT_DB_PATH cannot be empty")
	}

	if !c.UseHeuristicVibes && c.GeminiAPIKey == "" {
		return fmt.Errorf("DRIFT_GEMINI_API_KEY is required when DRIFT_USE_HEURISTIC_VIBES is false")
	}

	if c.MinioEndpoint != "" && (c.MinioAccessKey == "" || c.MinioSecretKey == "") {
		return fmt.Errorf("DRIFT_MINIO_ACCESS_KEY and DRIFT_MINIO_SECRET_KEY are required when DRIFT_MINIO_ENDPOINT is set")
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("DRIFT_PROVIDER_TIMEOUT must be positive")
	}

	return nil
}

// Load parses a fresh Config from the environment. Most callers want
// GetConfig; Load exists so the parse and validation steps stay testable.
func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		c, err := Load()
		if err != nil {
			logrus.Fatalf("[Config] %v", err)
		}
		cfg = c
	})
	return cfg
}
