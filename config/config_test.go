package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/productivity-engine/config"
	"github.com/warp/productivity-engine/kpi"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// =============================================================================
// SERVER ENVIRONMENT
// =============================================================================

func TestLoadServer_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ALLOWED_ORIGINS", "LOG_LEVEL", "APP_CONFIG", "CATEGORY_MAPPING"} {
		t.Setenv(key, "")
	}

	s := config.LoadServer()
	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, s.AllowedOrigins)
	assert.Equal(t, "info", s.LogLevel)
}

func TestLoadServer_EnvOverridesAndOriginTrimming(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	s := config.LoadServer()
	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.AllowedOrigins)
}

// =============================================================================
// APP CONFIG
// =============================================================================

func TestLoadApp_ValidYAML(t *testing.T) {
	path := writeFile(t, "app.yaml", `
timezone: UTC
default_shift_start: "08:30"
default_shift_end: "17:30"
overlap_policy: count_full
team_field: squad
`)

	app := config.LoadApp(path, zerolog.Nop())
	cfg, err := app.EngineConfig()
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, kpi.PolicyCountFull, cfg.OverlapPolicy)
	assert.Equal(t, "squad", cfg.TeamField)
	assert.Equal(t, kpi.ClockTime{Hour: 8, Minute: 30}, cfg.DefaultShiftStart)
	assert.Equal(t, kpi.ClockTime{Hour: 17, Minute: 30}, cfg.DefaultShiftEnd)
}

func TestLoadApp_MissingFileDegradesToDefaults(t *testing.T) {
	app := config.LoadApp(filepath.Join(t.TempDir(), "absent.yaml"), zerolog.Nop())
	cfg, err := app.EngineConfig()
	require.NoError(t, err)

	def := kpi.DefaultConfig()
	assert.Equal(t, def.Timezone, cfg.Timezone)
	assert.Equal(t, def.OverlapPolicy, cfg.OverlapPolicy)
}

func TestLoadApp_MalformedYAMLDegradesToDefaults(t *testing.T) {
	path := writeFile(t, "app.yaml", "timezone: [not\n")

	app := config.LoadApp(path, zerolog.Nop())
	assert.Equal(t, config.App{}, app)
}

func TestEngineConfig_MalformedShiftTimeIsError(t *testing.T) {
	// Defaults exist for absent values, not bad ones.
	app := config.App{DefaultShiftStart: "nine"}
	_, err := app.EngineConfig()
	require.Error(t, err)
}

func TestEngineConfig_PartialOverride(t *testing.T) {
	app := config.App{OverlapPolicy: "count_full"}
	cfg, err := app.EngineConfig()
	require.NoError(t, err)

	def := kpi.DefaultConfig()
	assert.Equal(t, kpi.PolicyCountFull, cfg.OverlapPolicy)
	assert.Equal(t, def.Timezone, cfg.Timezone)
	assert.Equal(t, def.DefaultShiftStart, cfg.DefaultShiftStart)
}

// =============================================================================
// CATEGORY MAPPING
// =============================================================================

func TestLoadCategoryMapping_ValidJSON(t *testing.T) {
	path := writeFile(t, "mapping.json", `{"Billing": ["invoice", "payment"], "Tech": []}`)

	mapping := config.LoadCategoryMapping(path, zerolog.Nop())
	assert.Equal(t, []string{"invoice", "payment"}, mapping["Billing"])
	assert.Contains(t, mapping, "Tech")
}

func TestLoadCategoryMapping_UnreadableDegrades(t *testing.T) {
	mapping := config.LoadCategoryMapping(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop())
	assert.Equal(t, kpi.DefaultCategoryMapping(), mapping)
}

func TestLoadCategoryMapping_MalformedDegrades(t *testing.T) {
	path := writeFile(t, "mapping.json", `{"Billing": "not-a-list"}`)

	mapping := config.LoadCategoryMapping(path, zerolog.Nop())
	assert.Equal(t, kpi.DefaultCategoryMapping(), mapping)
}

func TestLoadCategoryMapping_EmptyObjectDegrades(t *testing.T) {
	path := writeFile(t, "mapping.json", `{}`)

	mapping := config.LoadCategoryMapping(path, zerolog.Nop())
	assert.Equal(t, kpi.DefaultCategoryMapping(), mapping)
}
