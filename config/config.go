/*
Package config loads engine and server configuration.

PURPOSE:
  Three sources, re-read from disk on every run:
  - Server environment (PORT, LOG_LEVEL, ...) via godotenv with defaults
  - App config YAML (timezone, default shift hours, overlap policy)
  - Category mapping JSON (canonical name -> synonyms)

DEGRADED MODE:
  An unreadable app config or category mapping does not abort the run.
  The loader logs the failure and falls back to defaults / {"Other": []},
  since categorization failure should not block productivity measurement.
  Missing columns and invalid policies remain fatal, but those are detected
  by the engine, not here.
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/warp/productivity-engine/kpi"
)

// =============================================================================
// SERVER ENVIRONMENT
// =============================================================================

// Server holds process-level settings for the HTTP binary.
type Server struct {
	Port            string
	AllowedOrigins  []string
	LogLevel        string
	AppConfigPath   string
	CategoryMapPath string
}

// LoadServer reads server settings from the environment, consulting a .env
// file when present.
func LoadServer() Server {
	_ = godotenv.Load()

	s := Server{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AppConfigPath:   getEnv("APP_CONFIG", "config/app_config.yaml"),
		CategoryMapPath: getEnv("CATEGORY_MAPPING", "config/category_mapping.json"),
	}
	for i, origin := range s.AllowedOrigins {
		s.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	return s
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// =============================================================================
// APP CONFIG (YAML)
// =============================================================================

// App mirrors the app_config.yaml file. Zero fields fall back to the engine
// defaults.
type App struct {
	Timezone          string `yaml:"timezone"`
	DefaultShiftStart string `yaml:"default_shift_start"`
	DefaultShiftEnd   string `yaml:"default_shift_end"`
	OverlapPolicy     string `yaml:"overlap_policy"`
	TeamField         string `yaml:"team_field"`
}

// LoadApp reads the YAML app config, degrading to an empty App on failure.
func LoadApp(path string, log zerolog.Logger) App {
	var app App
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("app config unreadable, using defaults")
		return app
	}
	if err := yaml.Unmarshal(data, &app); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("app config malformed, using defaults")
		return App{}
	}
	return app
}

// EngineConfig merges the app config over the engine defaults. Malformed
// shift times are an error: defaults exist for absent values, not bad ones.
func (a App) EngineConfig() (kpi.Config, error) {
	cfg := kpi.DefaultConfig()
	if a.Timezone != "" {
		cfg.Timezone = a.Timezone
	}
	if a.OverlapPolicy != "" {
		cfg.OverlapPolicy = kpi.OverlapPolicy(a.OverlapPolicy)
	}
	if a.TeamField != "" {
		cfg.TeamField = a.TeamField
	}
	if a.DefaultShiftStart != "" {
		c, err := kpi.ParseClockTime(a.DefaultShiftStart)
		if err != nil {
			return kpi.Config{}, fmt.Errorf("default_shift_start: %w", err)
		}
		cfg.DefaultShiftStart = c
	}
	if a.DefaultShiftEnd != "" {
		c, err := kpi.ParseClockTime(a.DefaultShiftEnd)
		if err != nil {
			return kpi.Config{}, fmt.Errorf("default_shift_end: %w", err)
		}
		cfg.DefaultShiftEnd = c
	}
	return cfg, nil
}

// =============================================================================
// CATEGORY MAPPING (JSON)
// =============================================================================

// LoadCategoryMapping reads the canonical-name -> synonyms table. On any
// failure it logs and returns the degraded {"Other": []} mapping.
func LoadCategoryMapping(path string, log zerolog.Logger) kpi.CategoryMapping {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("category mapping unreadable, all events map to Other")
		return kpi.DefaultCategoryMapping()
	}
	var mapping kpi.CategoryMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("category mapping malformed, all events map to Other")
		return kpi.DefaultCategoryMapping()
	}
	if len(mapping) == 0 {
		return kpi.DefaultCategoryMapping()
	}
	return mapping
}
