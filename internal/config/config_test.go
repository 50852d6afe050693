package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "data/students.json", cfg.StudentsPath)
	require.Equal(t, "data/admins.json", cfg.AdminsPath)
	require.Equal(t, 15*time.Second, cfg.AITimeout)
	require.Equal(t, 10*time.Minute, cfg.IntentCacheTTL)
	require.Equal(t, "queryapi.queries", cfg.NATSSubject)
	require.Equal(t, 30, cfg.QueryRateLimit)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.False(t, cfg.UsesLLM())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("QUERYAPI_APP_PORT", ":9000")
	t.Setenv("QUERYAPI_OPENAI_API_KEY", "sk-test")
	t.Setenv("QUERYAPI_AI_TIMEOUT", "3s")
	t.Setenv("QUERYAPI_RATE_LIMIT_MAX", "5")
	t.Setenv("QUERYAPI_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("QUERYAPI_CORS_ORIGINS", "https://admin.school.test, ,https://ops.school.test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddress())
	require.True(t, cfg.UsesLLM())
	require.Equal(t, 3*time.Second, cfg.AITimeout)
	require.Equal(t, 5, cfg.QueryRateLimit)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.Equal(t, []string{"https://admin.school.test", "https://ops.school.test"}, cfg.CORSOrigins)

	t.Setenv("QUERYAPI_AI_PROVIDER", "keyword")
	cfg, err = Load()
	require.NoError(t, err)
	require.False(t, cfg.UsesLLM())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("QUERYAPI_INTENT_CACHE_TTL", "forever")
	_, err := Load()
	require.Error(t, err)
}
