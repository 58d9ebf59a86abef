package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://:memory:")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 10, cfg.RateLimitPerMinute)
	require.Equal(t, 5, cfg.MaxLoginAttempts)
	require.Equal(t, 15*time.Minute, cfg.LoginLockout)
	require.Equal(t, 8, cfg.MinPasswordLength)
	require.True(t, cfg.RequireDigits)
	require.True(t, cfg.RequireSpecialChars)
	require.False(t, cfg.RequireUppercase)
	require.False(t, cfg.EnforceLongRateWindows)
	require.False(t, cfg.ObjectStorageEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vidface")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("TTS_TIMEOUT", "15s")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("DEBUG", "yes")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.Equal(t, 15*time.Second, cfg.TTSTimeout)
	require.Equal(t, 1, cfg.WorkerCount)
	require.True(t, cfg.Debug)
	require.Equal(t, 5, cfg.MaxLoginAttempts)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "sqlite://:memory:")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	require.Error(t, err)
}
