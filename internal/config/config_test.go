package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, ":8700", cfg.Server.Addr)
	assert.Equal(t, "data", cfg.Server.DataDir)
	assert.Equal(t, 15, cfg.External.RequestTimeoutSeconds)
}

func TestLoad_YAMLWithDefaultsFilledIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crumbwise.yml")
	raw := `
server:
  addr: ":9000"
external:
  calendar_base_url: "https://calendar.internal"
sections:
  active:
    - "DOING NOW"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	// Unset fields fall back to defaults.
	assert.Equal(t, "data", cfg.Server.DataDir)
	assert.Equal(t, 15, cfg.External.RequestTimeoutSeconds)
	assert.Equal(t, "https://calendar.internal", cfg.External.CalendarBaseURL)
	assert.Equal(t, []string{"DOING NOW"}, cfg.Sections.Active)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CRUMBWISE_ADDR", ":7777")
	t.Setenv("CRUMBWISE_DATA_DIR", "/var/lib/crumbwise")
	t.Setenv("CRUMBWISE_CALENDAR_URL", "https://calendar.example")
	t.Setenv("CRUMBWISE_REQUEST_TIMEOUT_SECONDS", "30")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/crumbwise", cfg.Server.DataDir)
	assert.Equal(t, "https://calendar.example", cfg.External.CalendarBaseURL)
	assert.Equal(t, 30, cfg.External.RequestTimeoutSeconds)
}

func TestApplyEnv_MalformedIntIgnored(t *testing.T) {
	t.Setenv("CRUMBWISE_REQUEST_TIMEOUT_SECONDS", "soon")
	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, 15, cfg.External.RequestTimeoutSeconds)
}
