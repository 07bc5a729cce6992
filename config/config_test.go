package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Lookup, cfg.Lookup)
	assert.False(t, cfg.Auth.Enabled())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cims.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9000"

[lookup]
reference_year = "2024"

[reports]
base_url = "https://reports.example.com/api"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "2024", cfg.Lookup.ReferenceYear)
	assert.Equal(t, []string{"0088", "1191", "0332"}, cfg.Lookup.EligibleCommodities)
	assert.Equal(t, "https://reports.example.com/api/", cfg.Reports.BaseURL)
	assert.Equal(t, 30*time.Second, Duration(cfg.Server.ShutdownSeconds))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CIMS_DB_PATH", "/tmp/other.db")
	t.Setenv("CIMS_JWT_SIGNING_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.True(t, cfg.Auth.Enabled())
}

func TestLoad_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddr="), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Lookup.EligibleCommodities = nil
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eligible_commodities")
	assert.Contains(t, err.Error(), "log.level")
}
