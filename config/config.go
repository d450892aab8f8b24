/*
Package config loads server configuration from the environment.

PURPOSE:
  One place for every runtime knob: the HTTP port, the SQLite database
  path, the optional tax-year table file, and the CORS origin list. Values
  come from environment variables (optionally via a .env file) with
  defaults that make a bare `go run ./cmd/server` work.

VARIABLES:
  PORT                HTTP server port              (default 8080)
  DB_PATH             SQLite database path          (default depreciation.db)
  TAXYEAR_TABLE       YAML tax-year table overlay   (default: built-ins only)
  CORS_ORIGINS        Comma-separated origin list   (default localhost dev ports)
*/
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port         int
	DBPath       string
	TaxYearTable string
	CORSOrigins  []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present; a missing one is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "depreciation.db")
	v.SetDefault("TAXYEAR_TABLE", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")

	if err := v.ReadInConfig(); err != nil {
		// Only a parse failure matters; running without a .env is normal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Port:         v.GetInt("PORT"),
		DBPath:       v.GetString("DB_PATH"),
		TaxYearTable: v.GetString("TAXYEAR_TABLE"),
	}
	for _, origin := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	return cfg, nil
}
