package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectory-stn/internal/errors"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Input.Dir = "runs"
	cfg.Schema.Path = "params.hcl"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "|", cfg.Input.Separator)
	assert.Equal(t, "E", cfg.Input.EliteMarker)
	assert.Equal(t, "min", cfg.Conversion.Statistic)
	assert.Equal(t, 1, cfg.Conversion.Workers)
	assert.Equal(t, "-", cfg.Output.Path)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "stn.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"conversion": {"statistic": "mean", "columns": {"elite": true}}}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mean", cfg.Conversion.Statistic)
	assert.True(t, cfg.Conversion.Columns.Elite)
	assert.Equal(t, 2, cfg.Conversion.Digits, "unset fields keep defaults")

	cfg.Input.Dir = "runs"
	require.NoError(t, cfg.Save(path))
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"input": `), 0644))
	_, err := Load(path)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no dir", func(c *Config) { c.Input.Dir = "" }},
		{"no schema", func(c *Config) { c.Schema.Path = "" }},
		{"empty separator", func(c *Config) { c.Input.Separator = "" }},
		{"bad statistic", func(c *Config) { c.Conversion.Statistic = "median" }},
		{"negative digits", func(c *Config) { c.Conversion.Digits = -1 }},
		{"no workers", func(c *Config) { c.Conversion.Workers = 0 }},
		{"no output", func(c *Config) { c.Output.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.TypeConfig), "got %v", err)
		})
	}
}

func TestGlobal(t *testing.T) {
	orig := Get()
	t.Cleanup(func() { Set(orig) })

	cfg := validConfig()
	Set(cfg)
	assert.Same(t, cfg, Get())
}
