package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Trust modes
const (
	TrustModeChecksum = "checksum"
	TrustModeAllowAll = "allow-all"
	TrustModeDenyAll  = "deny-all"
)

// Config holds all application configuration
type Config struct {
	// Plugin discovery configuration
	Plugins PluginsConfig

	// Trust configuration
	Trust TrustConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// PluginsConfig holds plugin discovery settings
type PluginsConfig struct {
	// Raw semicolon-delimited plugin paths; empty means convention-based discovery
	RawPaths    string
	HomeDir     string
	InternalDir string
	WarmWorkers int

	// Directory watching
	WatchDebounce time.Duration
}

// TrustConfig holds signature verification settings
type TrustConfig struct {
	Mode         string
	ManifestPath string

	// Verifier cache
	CacheSize        int
	CacheTTL         time.Duration
	CacheFingerprint bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel logrus.Level

	// Metrics
	MetricsEnabled bool
	MetricsAddr    string

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Plugins:       loadPluginsConfig(),
		Trust:         loadTrustConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadPluginsConfig loads plugin discovery configuration from environment
func loadPluginsConfig() PluginsConfig {
	return PluginsConfig{
		RawPaths:    os.Getenv("SPOKE_PLUGIN_PATHS"),
		HomeDir:     getEnv("SPOKE_PLUGINS_HOME", ""),
		InternalDir: getEnv("SPOKE_PLUGINS_INTERNAL_DIR", ""),
		WarmWorkers: getEnvInt("SPOKE_WARM_WORKERS", 4),

		WatchDebounce: getEnvDuration("SPOKE_WATCH_DEBOUNCE", 500*time.Millisecond),
	}
}

// loadTrustConfig loads trust configuration from environment
func loadTrustConfig() TrustConfig {
	return TrustConfig{
		Mode:         strings.ToLower(getEnv("SPOKE_TRUST_MODE", TrustModeChecksum)),
		ManifestPath: getEnv("SPOKE_TRUST_MANIFEST", ""),
		CacheSize:    getEnvInt("SPOKE_VERIFIER_CACHE_SIZE", 256),
		CacheTTL:     getEnvDuration("SPOKE_VERIFIER_CACHE_TTL", 10*time.Minute),

		CacheFingerprint: getEnvBool("SPOKE_VERIFIER_CACHE_FINGERPRINT", false),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("SPOKE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("SPOKE_METRICS_ENABLED", false),
		MetricsAddr:        getEnv("SPOKE_METRICS_ADDR", ":9090"),
		OTelEnabled:        getEnvBool("SPOKE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("SPOKE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("SPOKE_OTEL_SERVICE_NAME", "spoke-plugins"),
		OTelServiceVersion: getEnv("SPOKE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("SPOKE_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("SPOKE_OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Trust.Mode {
	case TrustModeChecksum:
		if c.Trust.ManifestPath == "" {
			return fmt.Errorf("trust manifest path is required for checksum trust mode")
		}
	case TrustModeAllowAll, TrustModeDenyAll:
	default:
		return fmt.Errorf("invalid trust mode: %s (must be checksum, allow-all, or deny-all)", c.Trust.Mode)
	}

	if c.Trust.CacheSize < 0 {
		return fmt.Errorf("verifier cache size must not be negative")
	}

	if c.Plugins.WarmWorkers < 0 {
		return fmt.Errorf("warm workers must not be negative")
	}

	if c.Plugins.WatchDebounce < 0 {
		return fmt.Errorf("watch debounce must not be negative")
	}

	if c.Observability.MetricsEnabled && c.Observability.MetricsAddr == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1, got %v", r)
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
