package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/modelstore"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, advisory.DefaultThresholds(), cfg.Advisory)
	assert.Equal(t, "models/heart_disease_model.json", cfg.ModelPaths[0])
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http_port: "9090"
log_level: debug
model_sources: [postgres, file]
postgres_dsn: "postgres://yaml"
ml_timeout: 5s
redis_addr: "redis:6379"
advisory:
  low_heart_rate_with_high_bp: 55
  exertional_angina_heart_rate: 70
canary_schedule: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("MODEL_PATHS", "a.json, b.json")
	t.Setenv("ADVISORY_EXERTIONAL_ANGINA_HEART_RATE", "75")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{ModelSourcePostgres, ModelSourceFile}, cfg.ModelSources)
	assert.Equal(t, []string{"a.json", "b.json"}, cfg.ModelPaths)
	assert.Equal(t, "postgres://yaml", cfg.PostgresDSN)
	assert.Equal(t, 5*time.Second, cfg.MLTimeout)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, advisory.Thresholds{LowHeartRateWithHighBP: 55, ExertionalAnginaHeartRate: 75}, cfg.Advisory)
	assert.Empty(t, cfg.CanarySchedule)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("REDIS_DB", "zero")
	t.Setenv("ML_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_DB")
	assert.Contains(t, err.Error(), "ML_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"postgres without dsn", func(c *Config) { c.ModelSources = []string{ModelSourcePostgres} }, "postgres_dsn"},
		{"unknown source", func(c *Config) { c.ModelSources = []string{"s3"} }, `"s3"`},
		{"no sources", func(c *Config) { c.ModelSources = nil }, "model_sources"},
		{"zero threshold", func(c *Config) { c.Advisory.ExertionalAnginaHeartRate = 0 }, "advisory"},
		{"bad canary schedule", func(c *Config) { c.CanarySchedule = "every hour" }, "canary schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.CanarySchedule = ""
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, modelstore.DefaultCandidates, cfg.ModelPaths)
	assert.Equal(t, []string{
		"models/heart_disease_model.json",
		"notebooks/models/heart_disease_model.json",
		"heart_disease_model.json",
	}, cfg.ModelPaths)
	assert.Equal(t, "@every 1h", cfg.CanarySchedule)
}
