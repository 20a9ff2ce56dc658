package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{"USERS_JWT_SECRET": testSecret})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, AlgHS256, cfg.JWTAlgorithm)
	require.Equal(t, "users", cfg.JWTIssuer)
	require.Equal(t, []string{"users-api"}, cfg.JWTAudience)
	require.Equal(t, 120*time.Minute, cfg.JWTTTL)
	require.Equal(t, "log", cfg.EventsBackend)
	require.Equal(t, 100, cfg.OutboxBatch)
	require.Equal(t, 2*time.Second, cfg.OutboxInterval)
	require.Equal(t, "Administrator", cfg.BootstrapAdminName)
	require.Equal(t, "pepper", cfg.PepperFile)
	require.False(t, cfg.InMemoryDatabase())
}

func TestParseConfig_Overrides(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"USERS_JWT_SECRET":     testSecret,
		"USERS_HTTP_ADDR":      ":9000",
		"USERS_JWT_AUDIENCE":   "a,b",
		"USERS_JWT_TTL":        "15m",
		"USERS_EVENTS_BACKEND": "REDIS",
	})
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, []string{"a", "b"}, cfg.JWTAudience)
	require.Equal(t, 15*time.Minute, cfg.JWTTTL)
	require.Equal(t, "redis", cfg.eventsConfig().Backend)
}

func TestParseConfig_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		want    string
	}{
		{"short secret", map[string]string{"USERS_JWT_SECRET": "short"}, "USERS_JWT_SECRET"},
		{"unknown alg", map[string]string{"USERS_JWT_ALG": "RS256"}, "USERS_JWT_ALG"},
		{"unknown backend", map[string]string{
			"USERS_JWT_SECRET":     testSecret,
			"USERS_EVENTS_BACKEND": "kafka",
		}, "USERS_EVENTS_BACKEND"},
		{"half bootstrap", map[string]string{
			"USERS_JWT_SECRET":            testSecret,
			"USERS_BOOTSTRAP_ADMIN_EMAIL": "root@example.com",
		}, "USERS_BOOTSTRAP_ADMIN_PASSWORD"},
		{"zero batch", map[string]string{
			"USERS_JWT_SECRET":   testSecret,
			"USERS_OUTBOX_BATCH": "0",
		}, "USERS_OUTBOX_BATCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(tt.environ)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseConfig_EdDSAWithoutSecret(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{"USERS_JWT_ALG": AlgEdDSA})
	require.NoError(t, err)
	require.Equal(t, AlgEdDSA, cfg.JWTAlgorithm)
}

func TestConfigValidate_PepperRequiredForPersistentDatabase(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{"USERS_JWT_SECRET": testSecret})
	require.NoError(t, err)

	cfg.PepperFile = ""
	require.ErrorContains(t, cfg.Validate(), "USERS_PEPPER_FILE")

	cfg.DatabaseDSN = "file::memory:?cache=shared"
	require.True(t, cfg.InMemoryDatabase())
	require.NoError(t, cfg.Validate())
}
