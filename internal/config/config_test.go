package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/diary.db", cfg.Database.DSN)
	require.Equal(t, "memory", cfg.Session.Backend)
	require.Equal(t, 24*time.Hour, cfg.Session.TTL)
	require.False(t, cfg.Session.Sliding)
	require.Equal(t, "diary_session", cfg.Session.CookieName)
	require.Equal(t, 5, cfg.Upload.MaxFiles)
	require.EqualValues(t, 5*1024*1024, cfg.Upload.MaxFileSize)
	require.Equal(t, "/images", cfg.Upload.PublicPrefix)
	require.Equal(t, "admin", cfg.Auth.DefaultUsername)
	require.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=localhost dbname=diary sslmode=disable")
	t.Setenv("SESSION_SLIDING", "true")
	t.Setenv("SERVER_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Session.Sliding)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsUnknownSessionBackend(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "memcached")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	require.Error(t, err)
}
