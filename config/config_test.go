package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManagerDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	// Гасим переменные, которые может задавать CI.
	for _, key := range []string{"SERVER_PORT", "LEAGUE_ID", "DATABASE_URL", "DATA_DIR", "ROUND_STALL_TIMEOUT", "LEAGUE_GAME_TYPE", "LEAGUE_MIN_PLAYERS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadManager()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "LEAGUE001", cfg.LeagueID)
	assert.Equal(t, "even_odd", cfg.GameType)
	assert.Equal(t, 2, cfg.MinPlayers)
	assert.Equal(t, 2*time.Minute, cfg.StallTimeout)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadManagerRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := LoadManager()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
}

func TestLoadManagerRejectsBadPort(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("SERVER_PORT", "70000")

	_, err := LoadManager()
	assert.Error(t, err)
}

func TestLoadManagerParsesOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadManager()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRefereeDefaultsAndOverrides(t *testing.T) {
	t.Setenv("MANAGER_ENDPOINT", "http://manager:8080/mcp")
	t.Setenv("JOIN_TIMEOUT", "2s")
	t.Setenv("DISPLAY_NAME", "Strict Arbiter")
	for _, key := range []string{"SERVER_PORT", "SELF_ENDPOINT", "MAX_CONCURRENT_MATCHES", "CHOICE_TIMEOUT", "REPORT_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadReferee()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.ServerPort)
	assert.Equal(t, "http://localhost:8081/mcp", cfg.SelfEndpoint)
	assert.Equal(t, "Strict Arbiter", cfg.DisplayName)
	assert.Equal(t, 2, cfg.MaxConcurrentMatches)
	assert.Equal(t, 2*time.Second, cfg.JoinTimeout)
	assert.Equal(t, 30*time.Second, cfg.ChoiceTimeout)
	assert.Equal(t, 10*time.Second, cfg.ReportTimeout)
}

func TestLoadRefereeRequiresManagerEndpoint(t *testing.T) {
	t.Setenv("MANAGER_ENDPOINT", "")

	_, err := LoadReferee()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANAGER_ENDPOINT")
}

func TestLoadPlayerSelfEndpoint(t *testing.T) {
	t.Setenv("MANAGER_ENDPOINT", "http://manager:8080/mcp")
	t.Setenv("SELF_ENDPOINT", "http://players.example/alice/mcp")
	t.Setenv("PLAYER_STRATEGY", "counter")
	t.Setenv("SERVER_PORT", "")

	cfg, err := LoadPlayer()
	require.NoError(t, err)

	assert.Equal(t, "http://players.example/alice/mcp", cfg.SelfEndpoint)
	assert.Equal(t, "counter", cfg.Strategy)
	assert.Equal(t, 8082, cfg.ServerPort)
}
