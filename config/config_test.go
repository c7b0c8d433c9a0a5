package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 10*time.Minute, cfg.PendingTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "queue", cfg.MailTransport)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("CLIENT_URL", "https://app.test/")
	t.Setenv("BCRYPT_COST", "nope")

	cfg := Load()

	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "https://app.test/api/users/activate?token=abc", cfg.VerifyEmailLink("abc"))
	assert.Equal(t, "https://app.test/api/users/reset-password?token=abc", cfg.ResetPasswordLink("abc"))
}

func TestValidateProductionSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	cfg := Load()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PENDING_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "SESSION_SECRET")

	cfg.PendingTokenSecret = "a-real-secret"
	cfg.SessionSecret = "another-real-secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidateMailTransport(t *testing.T) {
	cfg := Load()
	cfg.MailTransport = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}
