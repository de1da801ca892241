package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  ws_path: "/ws"
  max_connections: 5000
  max_message_size: 4096
  send_buffer: 32

announcer:
  enabled: false
  interval_ms: 500

redis:
  enabled: true
  addr: "redis:6379"
  password: "secret"
  db: 1
  status_key: "relay:test"
  status_ttl: 5

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  message_limit:
    max_per_second: 20

log:
  file: "/tmp/relay.log"
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/ws", cfg.Server.WSPath)
	assert.Equal(t, 5000, cfg.Server.MaxConnections)
	assert.Equal(t, int64(4096), cfg.Server.MaxMessageSize)
	assert.Equal(t, 32, cfg.Server.SendBuffer)
	assert.False(t, cfg.Announcer.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Announcer.IntervalDuration())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "relay:test", cfg.Redis.StatusKey)
	assert.Equal(t, 5*time.Second, cfg.Redis.StatusTTLDuration())
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, 20, cfg.Security.MessageLimit.MaxPerSecond)
	assert.Equal(t, "/tmp/relay.log", cfg.Log.File)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultWSPath, cfg.Server.WSPath)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.True(t, cfg.Announcer.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Announcer.IntervalDuration())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
}

func TestLoad_ZeroValuesFallBack(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n  ws_path: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultWSPath, cfg.Server.WSPath)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"relative ws path", "server:\n  ws_path: \"ws\"\n"},
		{"negative interval", "announcer:\n  interval_ms: -1\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5001", cfg.Server.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestDurationMethods(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 120*time.Second, (&RateLimitConfig{BanDuration: 120}).BanDurationTime())
	assert.Equal(t, 15*time.Second, (&ServerConfig{ShutdownTimeout: 15}).ShutdownTimeoutDuration())
	assert.Equal(t, 250*time.Millisecond, (&AnnouncerConfig{IntervalMS: 250}).IntervalDuration())
	assert.Equal(t, time.Minute, (&RedisConfig{StatusTTL: 60}).StatusTTLDuration())
}

func TestLoadFromEnv(t *testing.T) {
	// Not parallel because it modifies environment variables

	t.Setenv("RELAY_HOST", "env-host")
	t.Setenv("RELAY_PORT", "9999")
	t.Setenv("RELAY_REDIS_ENABLED", "true")
	t.Setenv("RELAY_REDIS_ADDR", "env-redis:6380")
	t.Setenv("RELAY_ANNOUNCE_INTERVAL_MS", "100")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "http://a.com, http://b.com")

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 100, cfg.Announcer.IntervalMS)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Security.AllowedOrigins)
}

func TestLoadFromEnv_InvalidNumber(t *testing.T) {
	t.Setenv("RELAY_PORT", "abc")

	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())
}
