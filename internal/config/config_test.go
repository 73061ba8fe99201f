package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, []byte("test-secret"), cfg.JWT.SecretKey)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.JWT.ActivationTokenTTL)
	assert.Equal(t, 30*time.Second, cfg.Notify.ChildCreatedDelay)
	assert.Equal(t, 3, cfg.Notify.MaxAttempts)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "uploads/profile_pictures", cfg.Storage.UploadDir)
	assert.False(t, cfg.Auth.RequireActivation)
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSecret))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SECRET_KEY", "s")
	t.Setenv("PUBLIC_BASE_URL", "https://kids.example.com/")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("AUTH_REQUIRE_ACTIVATION", "true")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://kids.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.True(t, cfg.Auth.RequireActivation)
	assert.Equal(t, 5, cfg.Notify.MaxAttempts)
}

func TestLoadBadValues(t *testing.T) {
	t.Setenv("SECRET_KEY", "s")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_TTL")
	assert.Contains(t, err.Error(), "NOTIFY_MAX_ATTEMPTS")
}

func TestValidateStorageBackend(t *testing.T) {
	t.Setenv("SECRET_KEY", "s")
	t.Setenv("STORAGE_BACKEND", "s3")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")

	t.Setenv("STORAGE_BACKEND", "ftp")
	_, err = Load()
	require.Error(t, err)
}
