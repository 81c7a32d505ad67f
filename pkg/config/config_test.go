package config

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{name: "returns true for 'true'", envValue: "true", defaultValue: false, want: true},
		{name: "returns true for '1'", envValue: "1", defaultValue: false, want: true},
		{name: "returns true for 'TRUE'", envValue: "TRUE", defaultValue: false, want: true},
		{name: "returns false for 'false'", envValue: "false", defaultValue: true, want: false},
		{name: "returns false for garbage", envValue: "yes please", defaultValue: true, want: false},
		{name: "returns default when unset", envValue: "", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL", tt.envValue)
			}

			got := getEnvBool("TEST_BOOL", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     int
	}{
		{name: "parses integer", envValue: "42", want: 42},
		{name: "falls back on invalid integer", envValue: "forty-two", want: 7},
		{name: "falls back when unset", envValue: "", want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_INT", tt.envValue)
			}

			got := getEnvInt("TEST_INT", 7)
			if got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{name: "parses duration", envValue: "90s", want: 90 * time.Second},
		{name: "falls back on invalid duration", envValue: "soon", want: time.Minute},
		{name: "falls back when unset", envValue: "", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_DURATION", tt.envValue)
			}

			got := getEnvDuration("TEST_DURATION", time.Minute)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestParseLogLevel tests log level parsing
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"DEBUG", logrus.DebugLevel},
		{"invalid", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestLoadPluginsConfig tests plugin discovery settings
func TestLoadPluginsConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg := loadPluginsConfig()
		if cfg.RawPaths != "" {
			t.Errorf("RawPaths = %q, want empty", cfg.RawPaths)
		}
		if cfg.WarmWorkers != 4 {
			t.Errorf("WarmWorkers = %d, want 4", cfg.WarmWorkers)
		}
		if cfg.WatchDebounce != 500*time.Millisecond {
			t.Errorf("WatchDebounce = %v, want 500ms", cfg.WatchDebounce)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SPOKE_PLUGIN_PATHS", "/a/a;/b/b")
		t.Setenv("SPOKE_PLUGINS_HOME", "/home/me/plugins")
		t.Setenv("SPOKE_PLUGINS_INTERNAL_DIR", "/opt/spoke/plugins")
		t.Setenv("SPOKE_WARM_WORKERS", "8")
		t.Setenv("SPOKE_WATCH_DEBOUNCE", "2s")

		cfg := loadPluginsConfig()
		if cfg.RawPaths != "/a/a;/b/b" {
			t.Errorf("RawPaths = %q", cfg.RawPaths)
		}
		if cfg.HomeDir != "/home/me/plugins" {
			t.Errorf("HomeDir = %q", cfg.HomeDir)
		}
		if cfg.InternalDir != "/opt/spoke/plugins" {
			t.Errorf("InternalDir = %q", cfg.InternalDir)
		}
		if cfg.WarmWorkers != 8 {
			t.Errorf("WarmWorkers = %d, want 8", cfg.WarmWorkers)
		}
		if cfg.WatchDebounce != 2*time.Second {
			t.Errorf("WatchDebounce = %v, want 2s", cfg.WatchDebounce)
		}
	})
}

// TestGetEnvFloat tests the getEnvFloat helper function
func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     float64
	}{
		{name: "parses ratio", envValue: "0.25", want: 0.25},
		{name: "falls back on invalid float", envValue: "half", want: 1},
		{name: "falls back when unset", envValue: "", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_FLOAT", tt.envValue)
			}

			got := getEnvFloat("TEST_FLOAT", 1)
			if got != tt.want {
				t.Errorf("getEnvFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLoadTrustConfig tests verifier cache settings
func TestLoadTrustConfig(t *testing.T) {
	clearEnv(t)

	cfg := loadTrustConfig()
	if cfg.CacheFingerprint {
		t.Error("CacheFingerprint = true, want false by default")
	}

	t.Setenv("SPOKE_VERIFIER_CACHE_FINGERPRINT", "true")
	cfg = loadTrustConfig()
	if !cfg.CacheFingerprint {
		t.Error("CacheFingerprint = false, want true")
	}
}

// TestConfigValidate tests configuration validation
func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Trust: TrustConfig{
				Mode:         TrustModeChecksum,
				ManifestPath: "/etc/spoke/trusted-plugins.yaml",
				CacheSize:    16,
			},
			Observability: ObservabilityConfig{
				MetricsAddr: ":9090",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid checksum config", mutate: func(*Config) {}, wantErr: false},
		{name: "checksum without manifest", mutate: func(c *Config) { c.Trust.ManifestPath = "" }, wantErr: true},
		{name: "allow-all without manifest", mutate: func(c *Config) {
			c.Trust.Mode = TrustModeAllowAll
			c.Trust.ManifestPath = ""
		}, wantErr: false},
		{name: "unknown trust mode", mutate: func(c *Config) { c.Trust.Mode = "maybe" }, wantErr: true},
		{name: "negative cache size", mutate: func(c *Config) { c.Trust.CacheSize = -1 }, wantErr: true},
		{name: "sample ratio above one", mutate: func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = "localhost:4317"
			c.Observability.OTelServiceName = "spoke-plugins"
			c.Observability.OTelSampleRatio = 1.5
		}, wantErr: true},
		{name: "negative warm workers", mutate: func(c *Config) { c.Plugins.WarmWorkers = -1 }, wantErr: true},
		{name: "negative watch debounce", mutate: func(c *Config) { c.Plugins.WatchDebounce = -time.Second }, wantErr: true},
		{name: "metrics without address", mutate: func(c *Config) {
			c.Observability.MetricsEnabled = true
			c.Observability.MetricsAddr = ""
		}, wantErr: true},
		{name: "otel without endpoint", mutate: func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = "svc"
		}, wantErr: true},
		{name: "otel without service name", mutate: func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = "localhost:4317"
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfig tests loading the full configuration
func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "valid config",
			env: map[string]string{
				"SPOKE_TRUST_MANIFEST": "/etc/spoke/trusted-plugins.yaml",
			},
			wantErr: false,
		},
		{
			name: "allow-all needs no manifest",
			env: map[string]string{
				"SPOKE_TRUST_MODE": "Allow-All",
			},
			wantErr: false,
		},
		{
			name:    "checksum mode needs a manifest",
			env:     map[string]string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && cfg == nil {
				t.Error("LoadConfig() returned nil config without error")
			}
		})
	}
}

// clearEnv unsets every SPOKE_ variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SPOKE_PLUGIN_PATHS",
		"SPOKE_PLUGINS_HOME",
		"SPOKE_PLUGINS_INTERNAL_DIR",
		"SPOKE_WARM_WORKERS",
		"SPOKE_WATCH_DEBOUNCE",
		"SPOKE_TRUST_MODE",
		"SPOKE_TRUST_MANIFEST",
		"SPOKE_VERIFIER_CACHE_SIZE",
		"SPOKE_VERIFIER_CACHE_TTL",
		"SPOKE_VERIFIER_CACHE_FINGERPRINT",
		"SPOKE_LOG_LEVEL",
		"SPOKE_METRICS_ENABLED",
		"SPOKE_METRICS_ADDR",
		"SPOKE_OTEL_ENABLED",
		"SPOKE_OTEL_SAMPLE_RATIO",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}
