package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
	"github.com/riskibarqy/nfl-pickem/internal/platform/resilience"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	DBURL              string
	DBPoolerCompatible bool
	DBMaxOpenConns     int
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	MetricsEnabled     bool
	PprofEnabled       bool
	PprofAddr          string

	AnubisBaseURL        string
	AnubisIntrospectPath string
	AnubisAdminKey       string
	AnubisTimeout        time.Duration
	AnubisCacheTTL       time.Duration
	AnubisCircuit        resilience.CircuitBreakerConfig

	ESPNEnabled    bool
	ESPNBaseURL    string
	ESPNTimeout    time.Duration
	ESPNMaxRetries int
	ESPNCircuit    resilience.CircuitBreakerConfig

	FeedSyncInterval time.Duration
	FeedSyncWorkers  int

	NATSURL           string
	NATSSubjectPrefix string

	PickRateLimitPerMinute int
	PickRateLimitBurst     int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	InternalJobToken string
}

// InMemory reports whether the service runs without Postgres.
func (c Config) InMemory() bool {
	return strings.TrimSpace(c.DBURL) == ""
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:               appEnv,
		ServiceName:          getEnv("SERVICE_NAME", "nfl-pickem-api"),
		ServiceVersion:       getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DBURL:                strings.TrimSpace(os.Getenv("DB_URL")),
		CORSAllowedOrigins:   splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:             logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		AnubisBaseURL:        strings.TrimSpace(getEnv("ANUBIS_BASE_URL", "http://localhost:8081")),
		AnubisIntrospectPath: strings.TrimSpace(getEnv("ANUBIS_INTROSPECT_PATH", "/v1/auth/introspect")),
		AnubisAdminKey:       strings.TrimSpace(getEnv("ANUBIS_ADMIN_KEY", "")),
		ESPNBaseURL:          strings.TrimSpace(getEnv("ESPN_BASE_URL", "https://site.api.espn.com")),
		NATSURL:              strings.TrimSpace(getEnv("NATS_URL", "")),
		NATSSubjectPrefix:    strings.TrimSpace(getEnv("NATS_SUBJECT_PREFIX", "nflpickem")),
		UptraceDSN:           strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		InternalJobToken:     strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, errors.New("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}

	if cfg.DBPoolerCompatible, err = getEnvAsBool("DB_POOLER_COMPATIBLE", true); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxOpenConns, err = getEnvAsInt("DB_MAX_OPEN_CONNS", 20); err != nil {
		return Config{}, errors.Wrap(err, "parse DB_MAX_OPEN_CONNS")
	}
	if cfg.DBMaxOpenConns < 1 {
		return Config{}, errors.New("DB_MAX_OPEN_CONNS must be >= 1")
	}
	if cfg.ReadTimeout, err = getEnvAsPositiveDuration("HTTP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsPositiveDuration("HTTP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.MetricsEnabled, err = getEnvAsBool("METRICS_ENABLED", true); err != nil {
		return Config{}, err
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, errors.New("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.AnubisTimeout, err = getEnvAsPositiveDuration("ANUBIS_TIMEOUT", "3s"); err != nil {
		return Config{}, err
	}
	if cfg.AnubisCacheTTL, err = getEnvAsPositiveDuration("ANUBIS_CACHE_TTL", "60s"); err != nil {
		return Config{}, err
	}
	if cfg.AnubisCircuit, err = loadCircuitBreaker("ANUBIS"); err != nil {
		return Config{}, err
	}

	if cfg.ESPNEnabled, err = getEnvAsBool("ESPN_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.ESPNTimeout, err = getEnvAsPositiveDuration("ESPN_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.ESPNMaxRetries, err = getEnvAsInt("ESPN_MAX_RETRIES", 2); err != nil {
		return Config{}, errors.Wrap(err, "parse ESPN_MAX_RETRIES")
	}
	if cfg.ESPNMaxRetries < 0 {
		return Config{}, errors.New("ESPN_MAX_RETRIES must be >= 0")
	}
	if cfg.ESPNCircuit, err = loadCircuitBreaker("ESPN"); err != nil {
		return Config{}, err
	}
	if cfg.ESPNEnabled && cfg.ESPNBaseURL == "" {
		return Config{}, errors.New("ESPN_BASE_URL is required when ESPN_ENABLED=true")
	}

	if cfg.FeedSyncInterval, err = getEnvAsPositiveDuration("FEED_SYNC_INTERVAL", "2m"); err != nil {
		return Config{}, err
	}
	if cfg.FeedSyncWorkers, err = getEnvAsInt("FEED_SYNC_WORKERS", 4); err != nil {
		return Config{}, errors.Wrap(err, "parse FEED_SYNC_WORKERS")
	}
	if cfg.FeedSyncWorkers < 1 {
		return Config{}, errors.New("FEED_SYNC_WORKERS must be >= 1")
	}

	if cfg.PickRateLimitPerMinute, err = getEnvAsInt("PICK_RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return Config{}, errors.Wrap(err, "parse PICK_RATE_LIMIT_PER_MINUTE")
	}
	if cfg.PickRateLimitPerMinute < 0 {
		return Config{}, errors.New("PICK_RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	if cfg.PickRateLimitBurst, err = getEnvAsInt("PICK_RATE_LIMIT_BURST", 10); err != nil {
		return Config{}, errors.Wrap(err, "parse PICK_RATE_LIMIT_BURST")
	}
	if cfg.PickRateLimitBurst < 1 {
		return Config{}, errors.New("PICK_RATE_LIMIT_BURST must be >= 1")
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, errors.New("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, errors.New("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}

	if appEnv == EnvProd && cfg.InternalJobToken == "" {
		return Config{}, errors.New("INTERNAL_JOB_TOKEN is required when APP_ENV=prod")
	}

	return cfg, nil
}

func loadCircuitBreaker(prefix string) (resilience.CircuitBreakerConfig, error) {
	enabled, err := getEnvAsBool(prefix+"_CIRCUIT_ENABLED", true)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	failureCount, err := getEnvAsInt(prefix+"_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, errors.Wrapf(err, "parse %s_CIRCUIT_FAILURE_COUNT", prefix)
	}
	if failureCount < 1 {
		return resilience.CircuitBreakerConfig{}, errors.Newf("%s_CIRCUIT_FAILURE_COUNT must be >= 1", prefix)
	}
	openTimeout, err := getEnvAsPositiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", "15s")
	if err != nil {
		return resilience.CircuitBreakerConfig{}, err
	}
	halfOpenMaxReq, err := getEnvAsInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return resilience.CircuitBreakerConfig{}, errors.Wrapf(err, "parse %s_CIRCUIT_HALF_OPEN_MAX_REQ", prefix)
	}
	if halfOpenMaxReq < 1 {
		return resilience.CircuitBreakerConfig{}, errors.Newf("%s_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1", prefix)
	}

	return resilience.CircuitBreakerConfig{
		Enabled:          enabled,
		FailureThreshold: failureCount,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return false, errors.Wrapf(err, "parse %s", key)
	}
	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	if out <= 0 {
		return 0, errors.Newf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", errors.Newf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
