package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/config"
)

func TestLoad_DefaultsWithSecretFromEnv(t *testing.T) {
	t.Setenv("LEAVE_AUTH_JWT_SECRET", "s3cret")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "leave-engine", cfg.Auth.Issuer)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "./data/leave.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, 40, cfg.RateLimit.Burst)

	lc := cfg.LoggerConfig()
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stdout", lc.OutputPath)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("LEAVE_AUTH_JWT_SECRET", "")

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret")
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	// GIVEN: A YAML file setting port 9090 and console logs
	// WHEN: LEAVE_SERVER_PORT=7070 is also set
	// THEN: The file applies and the environment wins for the port

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
log:
  level: debug
  format: console
auth:
  jwt_secret: from-file
scheduler:
  enabled: false
seed:
  path: ./seed.yaml
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "./seed.yaml", cfg.Seed.Path)

	t.Setenv("LEAVE_SERVER_PORT", "7070")
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Server:    config.ServerConfig{Port: 8080},
			Database:  config.DatabaseConfig{Path: "x.db"},
			Log:       config.LogConfig{Level: "info", Format: "json"},
			Auth:      config.AuthConfig{JWTSecret: "s"},
			Scheduler: config.SchedulerConfig{Enabled: true, Interval: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"port out of range", func(c *config.Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
		{"no database", func(c *config.Config) { c.Database.Path = "" }, "database.path"},
		{"zero interval", func(c *config.Config) { c.Scheduler.Interval = 0 }, "scheduler.interval"},
		{"zero interval when disabled", func(c *config.Config) { c.Scheduler = config.SchedulerConfig{} }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
