package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	sentryDSN          string
	logBackend         string
	gcpProject         string
	otelEnabled        bool
	mockFetcher        bool
	admissionTimeout   time.Duration
	batchDeadline      time.Duration
	heartbeatInterval  time.Duration
	maxPermits         int
	hostRateLimit      float64
	hostBurst          int
	requestQuota       int
	requestQuotaWindow time.Duration
	fetchTimeout       time.Duration
	env                environment
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) LogBackend() string {
	return c.logBackend
}

func (c *Config) GCPProject() string {
	return c.gcpProject
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) MockFetcher() bool {
	return c.mockFetcher
}

func (c *Config) AdmissionTimeout() time.Duration {
	return c.admissionTimeout
}

func (c *Config) BatchDeadline() time.Duration {
	return c.batchDeadline
}

func (c *Config) HeartbeatInterval() time.Duration {
	return c.heartbeatInterval
}

func (c *Config) MaxPermits() int {
	return c.maxPermits
}

func (c *Config) HostRateLimit() float64 {
	return c.hostRateLimit
}

func (c *Config) HostBurst() int {
	return c.hostBurst
}

// RequestQuota is the number of upstream requests allowed per RequestQuotaWindow. 0 disables the quota.
func (c *Config) RequestQuota() int {
	return c.requestQuota
}

func (c *Config) RequestQuotaWindow() time.Duration {
	return c.requestQuotaWindow
}

func (c *Config) FetchTimeout() time.Duration {
	return c.fetchTimeout
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, logBackend: %s, admissionTimeout: %s, batchDeadline: %s, heartbeatInterval: %s, maxPermits: %d, ...}",
		string(c.env), c.logBackend, c.admissionTimeout, c.batchDeadline, c.heartbeatInterval, c.maxPermits,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key, raw string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, raw)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("FETCHCACHE_ENVIRONMENT")
	if !ok {
		return missingKey("FETCHCACHE_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("FETCHCACHE_ENVIRONMENT", rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	gcpProject := os.Getenv("GOOGLE_CLOUD_PROJECT")

	logBackend := os.Getenv("LOG_BACKEND")
	switch logBackend {
	case "":
		logBackend = "slog"
	case "slog", "zap", "logrus":
	default:
		return invalidValue("LOG_BACKEND", logBackend)
	}

	if env == production || env == staging {
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	otelEnabled, ok := lookupBool("OTEL_ENABLED", false)
	if !ok {
		return invalidValue("OTEL_ENABLED", os.Getenv("OTEL_ENABLED"))
	}
	mockFetcher, ok := lookupBool("MOCK_FETCHER", false)
	if !ok {
		return invalidValue("MOCK_FETCHER", os.Getenv("MOCK_FETCHER"))
	}
	if mockFetcher && env != development {
		return invalidValue("MOCK_FETCHER", "only allowed in development")
	}

	admissionTimeout, ok := lookupDuration("ADMISSION_TIMEOUT", 25*time.Second)
	if !ok {
		return invalidValue("ADMISSION_TIMEOUT", os.Getenv("ADMISSION_TIMEOUT"))
	}
	batchDeadline, ok := lookupDuration("BATCH_DEADLINE", 25*time.Second)
	if !ok {
		return invalidValue("BATCH_DEADLINE", os.Getenv("BATCH_DEADLINE"))
	}
	heartbeatInterval, ok := lookupDuration("HEARTBEAT_INTERVAL", 1*time.Second)
	if !ok {
		return invalidValue("HEARTBEAT_INTERVAL", os.Getenv("HEARTBEAT_INTERVAL"))
	}
	requestQuotaWindow, ok := lookupDuration("REQUEST_QUOTA_WINDOW", 5*time.Minute)
	if !ok {
		return invalidValue("REQUEST_QUOTA_WINDOW", os.Getenv("REQUEST_QUOTA_WINDOW"))
	}
	fetchTimeout, ok := lookupDuration("FETCH_TIMEOUT", 10*time.Second)
	if !ok {
		return invalidValue("FETCH_TIMEOUT", os.Getenv("FETCH_TIMEOUT"))
	}

	maxPermits, ok := lookupInt("MAX_PERMITS", 1000)
	if !ok || maxPermits < 1 {
		return invalidValue("MAX_PERMITS", os.Getenv("MAX_PERMITS"))
	}
	hostBurst, ok := lookupInt("HOST_BURST", 10)
	if !ok || hostBurst < 1 {
		return invalidValue("HOST_BURST", os.Getenv("HOST_BURST"))
	}
	requestQuota, ok := lookupInt("REQUEST_QUOTA", 0)
	if !ok || requestQuota < 0 {
		return invalidValue("REQUEST_QUOTA", os.Getenv("REQUEST_QUOTA"))
	}

	hostRateLimit := 10.0
	if raw := os.Getenv("HOST_RATE_LIMIT"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return invalidValue("HOST_RATE_LIMIT", raw)
		}
		hostRateLimit = parsed
	}

	return Config{
		sentryDSN:          sentryDSN,
		logBackend:         logBackend,
		gcpProject:         gcpProject,
		otelEnabled:        otelEnabled,
		mockFetcher:        mockFetcher,
		admissionTimeout:   admissionTimeout,
		batchDeadline:      batchDeadline,
		heartbeatInterval:  heartbeatInterval,
		maxPermits:         maxPermits,
		hostRateLimit:      hostRateLimit,
		hostBurst:          hostBurst,
		requestQuota:       requestQuota,
		requestQuotaWindow: requestQuotaWindow,
		fetchTimeout:       fetchTimeout,
		env:                env,
	}, nil
}

// Unset or empty variables return the fallback
func lookupBool(key string, fallback bool) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return value, true
}

func lookupInt(key string, fallback int) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Durations must be positive
func lookupDuration(key string, fallback time.Duration) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, true
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
