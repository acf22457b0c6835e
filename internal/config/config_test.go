package config_test

import (
	"testing"
	"time"

	"github.com/Amund211/fetchcache/internal/config"
	"github.com/stretchr/testify/require"
)

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

var allVariablesExceptEnv = []string{
	"SENTRY_DSN",
	"LOG_BACKEND",
	"GOOGLE_CLOUD_PROJECT",
	"OTEL_ENABLED",
	"MOCK_FETCHER",
	"ADMISSION_TIMEOUT",
	"BATCH_DEADLINE",
	"HEARTBEAT_INTERVAL",
	"MAX_PERMITS",
	"HOST_RATE_LIMIT",
	"HOST_BURST",
	"REQUEST_QUOTA",
	"REQUEST_QUOTA_WINDOW",
	"FETCH_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, variable := range allVariablesExceptEnv {
		t.Setenv(variable, "")
	}
}

func TestGetConfig(t *testing.T) {
	compareEnv := func(env environment, conf config.Config) {
		t.Helper()
		require.Equal(t, env == production, conf.IsProduction())
		require.Equal(t, env == staging, conf.IsStaging())
		require.Equal(t, env == development, conf.IsDevelopment())
	}

	t.Run("environment is missing", func(t *testing.T) {
		// FETCHCACHE_ENVIRONMENT is required, so this should fail
		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrMissingRequiredValue)
	})

	t.Run("development defaults", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FETCHCACHE_ENVIRONMENT", "development")

		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		compareEnv(development, conf)

		require.Empty(t, conf.SentryDSN())
		require.Equal(t, "slog", conf.LogBackend())
		require.Empty(t, conf.GCPProject())
		require.False(t, conf.OTelEnabled())
		require.False(t, conf.MockFetcher())
		require.Equal(t, 25*time.Second, conf.AdmissionTimeout())
		require.Equal(t, 25*time.Second, conf.BatchDeadline())
		require.Equal(t, time.Second, conf.HeartbeatInterval())
		require.Equal(t, 1000, conf.MaxPermits())
		require.InDelta(t, 10.0, conf.HostRateLimit(), 1e-9)
		require.Equal(t, 10, conf.HostBurst())
		require.Equal(t, 0, conf.RequestQuota())
		require.Equal(t, 5*time.Minute, conf.RequestQuotaWindow())
		require.Equal(t, 10*time.Second, conf.FetchTimeout())
	})

	t.Run("values are read correctly", func(t *testing.T) {
		t.Setenv("SENTRY_DSN", "SENTRY_DSN")
		t.Setenv("LOG_BACKEND", "zap")
		t.Setenv("GOOGLE_CLOUD_PROJECT", "my-project")
		t.Setenv("OTEL_ENABLED", "true")
		t.Setenv("MOCK_FETCHER", "false")
		t.Setenv("ADMISSION_TIMEOUT", "2s")
		t.Setenv("BATCH_DEADLINE", "3s")
		t.Setenv("HEARTBEAT_INTERVAL", "250ms")
		t.Setenv("MAX_PERMITS", "5")
		t.Setenv("HOST_RATE_LIMIT", "0.5")
		t.Setenv("HOST_BURST", "2")
		t.Setenv("REQUEST_QUOTA", "100")
		t.Setenv("REQUEST_QUOTA_WINDOW", "1m")
		t.Setenv("FETCH_TIMEOUT", "4s")

		for _, env := range []environment{production, staging, development} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("FETCHCACHE_ENVIRONMENT", string(env))

				conf, err := config.ConfigFromEnv()
				require.NoError(t, err)
				compareEnv(env, conf)

				require.Equal(t, "SENTRY_DSN", conf.SentryDSN())
				require.Equal(t, "zap", conf.LogBackend())
				require.Equal(t, "my-project", conf.GCPProject())
				require.True(t, conf.OTelEnabled())
				require.False(t, conf.MockFetcher())
				require.Equal(t, 2*time.Second, conf.AdmissionTimeout())
				require.Equal(t, 3*time.Second, conf.BatchDeadline())
				require.Equal(t, 250*time.Millisecond, conf.HeartbeatInterval())
				require.Equal(t, 5, conf.MaxPermits())
				require.InDelta(t, 0.5, conf.HostRateLimit(), 1e-9)
				require.Equal(t, 2, conf.HostBurst())
				require.Equal(t, 100, conf.RequestQuota())
				require.Equal(t, time.Minute, conf.RequestQuotaWindow())
				require.Equal(t, 4*time.Second, conf.FetchTimeout())
			})
		}
	})

	t.Run("production and staging require a sentry dsn", func(t *testing.T) {
		clearEnv(t)

		for _, env := range []environment{production, staging} {
			t.Run(string(env), func(t *testing.T) {
				t.Setenv("FETCHCACHE_ENVIRONMENT", string(env))

				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrMissingRequiredValue)
			})
		}
	})

	t.Run("mock fetcher outside development", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SENTRY_DSN", "SENTRY_DSN")
		t.Setenv("MOCK_FETCHER", "true")
		t.Setenv("FETCHCACHE_ENVIRONMENT", "production")

		_, err := config.ConfigFromEnv()
		require.ErrorIs(t, err, config.ErrInvalidValue)

		t.Setenv("FETCHCACHE_ENVIRONMENT", "development")
		conf, err := config.ConfigFromEnv()
		require.NoError(t, err)
		require.True(t, conf.MockFetcher())
	})

	t.Run("invalid values", func(t *testing.T) {
		cases := []struct {
			variable string
			value    string
		}{
			{"LOG_BACKEND", "log4j"},
			{"OTEL_ENABLED", "maybe"},
			{"ADMISSION_TIMEOUT", "soon"},
			{"BATCH_DEADLINE", "-1s"},
			{"HEARTBEAT_INTERVAL", "0s"},
			{"MAX_PERMITS", "0"},
			{"MAX_PERMITS", "many"},
			{"HOST_RATE_LIMIT", "0"},
			{"HOST_BURST", "-3"},
			{"REQUEST_QUOTA", "-1"},
			{"REQUEST_QUOTA_WINDOW", "forever"},
			{"FETCH_TIMEOUT", "10"},
		}
		for _, tc := range cases {
			t.Run(tc.variable+"="+tc.value, func(t *testing.T) {
				clearEnv(t)
				t.Setenv("FETCHCACHE_ENVIRONMENT", "development")
				t.Setenv(tc.variable, tc.value)

				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrInvalidValue)
			})
		}
	})

	t.Run("invalid environment", func(t *testing.T) {
		for _, env := range []string{"", "invalid", "my-env"} {
			t.Run(env, func(t *testing.T) {
				t.Setenv("FETCHCACHE_ENVIRONMENT", env)
				_, err := config.ConfigFromEnv()
				require.ErrorIs(t, err, config.ErrInvalidValue)
			})
		}
	})
}
