package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORAGE", "NATS_URL", "UNMATCHED_RETENTION", "GRAPH_API_URL", "CRON_SECRET", "OUTBOX_MAX_DELIVER", "ENV", "JWT_SECRET"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 30*24*time.Hour, cfg.UnmatchedRetention)
	assert.Equal(t, "https://graph.facebook.com/v19.0", cfg.GraphAPIURL)
	assert.Equal(t, 5, cfg.OutboxMaxDeliver)
	assert.Empty(t, cfg.CronSecret)
	assert.False(t, cfg.NATSEnabled())
	assert.False(t, cfg.Development())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE", StorageMemory)
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("UNMATCHED_RETENTION", "72h")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.True(t, cfg.NATSEnabled())
	assert.Equal(t, 72*time.Hour, cfg.UnmatchedRetention)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.True(t, cfg.LLMEnabled())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("GRAPH_TIMEOUT", "soon")
	t.Setenv("OUTBOX_MAX_DELIVER", "many")
	t.Setenv("TRACING_ENABLED", "perhaps")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.GraphTimeout)
	assert.Equal(t, 5, cfg.OutboxMaxDeliver)
	assert.False(t, cfg.TracingEnabled)
}

func TestValidate_JWTSecret(t *testing.T) {
	cases := []struct {
		name   string
		env    string
		secret string
		err    error
	}{
		{"production without secret", "", "", ErrInsecureJWTSecret},
		{"production with default secret", "", DevJWTSecret, ErrInsecureJWTSecret},
		{"production with real secret", "production", "s3cr3t", nil},
		{"development falls back", "development", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("ENV", tc.env)
			t.Setenv("JWT_SECRET", tc.secret)

			cfg := Load()
			if tc.err != nil {
				assert.ErrorIs(t, cfg.Validate(), tc.err)
				return
			}
			assert.NoError(t, cfg.Validate())
			assert.NotEmpty(t, cfg.JWTSecret)
		})
	}
}

func TestLoad_NoPublicSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	assert.Empty(t, cfg.JWTSecret)
	assert.Error(t, cfg.Validate())
}
