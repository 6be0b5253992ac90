package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromFiles_Defaults(t *testing.T) {
	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "both", config.Pipeline.Phases)
	assert.Equal(t, []string{"api", "web"}, config.PhaseList())
	assert.Equal(t, 100, config.Discovery.PageLimit)
	assert.Equal(t, 4, config.Crawler.StableChecks)
	assert.Equal(t, "luma-web", config.Session.Headers["X-Luma-Client-Type"])
}

func TestLoadFromFiles_LaterFileOverrides(t *testing.T) {
	base := writeConfig(t, "base.toml", `
[pipeline]
phases = "api"
run_timeout = "30m"

[discovery]
workers = 4
`)
	override := writeConfig(t, "override.toml", `
[pipeline]
phases = "web"

[session.cookies]
"luma.auth-session-key" = "usr-test"
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, "web", config.Pipeline.Phases)
	assert.Equal(t, "30m", config.Pipeline.RunTimeout)
	assert.Equal(t, 4, config.Discovery.Workers)
	assert.Equal(t, "usr-test", config.Session.Cookies["luma.auth-session-key"])
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "venator.toml", `
[pipeline]
phases = "api"
`)
	t.Setenv("VENATOR_PHASES", "both")
	t.Setenv("VENATOR_SERVER_PORT", "9191")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "both", config.Pipeline.Phases)
	assert.Equal(t, 9191, config.Server.Port)
}

func TestLoadFromFiles_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad phases", "[pipeline]\nphases = \"rss\"\n"},
		{"bad duration", "[crawler]\nscroll_timeout = \"soon\"\n"},
		{"bad schedule", "[scheduler]\nenabled = true\nschedule = \"every day\"\n"},
		{"bad format", "[enrichment]\ndescription_format = \"pdf\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "venator.toml", tt.body)
			_, err := LoadFromFiles(path)
			assert.Error(t, err)
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 7000, "", "api")

	assert.Equal(t, 7000, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, []string{"api"}, config.PhaseList())
}

func TestParseDurationOrDefault(t *testing.T) {
	assert.Equal(t, 2*time.Second, ParseDurationOrDefault("2s", time.Minute))
	assert.Equal(t, time.Minute, ParseDurationOrDefault("", time.Minute))
	assert.Equal(t, time.Minute, ParseDurationOrDefault("bogus", time.Minute))
}
