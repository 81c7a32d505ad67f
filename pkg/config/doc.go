// Package config provides plugin host configuration from environment variables.
//
// # Configuration Structure
//
// Plugin discovery settings:
//
//	SPOKE_PLUGIN_PATHS="/opt/a/a;/opt/b/b"  # empty: scan plugin directories
//	SPOKE_PLUGINS_HOME="$HOME/.spoke/plugins"
//	SPOKE_PLUGINS_INTERNAL_DIR=""
//	SPOKE_WARM_WORKERS="4"
//	SPOKE_WATCH_DEBOUNCE="500ms"
//
// Trust settings:
//
//	SPOKE_TRUST_MODE="checksum"  # checksum, allow-all, deny-all
//	SPOKE_TRUST_MANIFEST="/etc/spoke/trusted-plugins.yaml"
//	SPOKE_VERIFIER_CACHE_SIZE="256"
//	SPOKE_VERIFIER_CACHE_TTL="10m"
//
// Observability settings:
//
//	SPOKE_LOG_LEVEL="info"  # debug, info, warn, error
//	SPOKE_METRICS_ENABLED="true"
//	SPOKE_METRICS_ADDR=":9090"
//	SPOKE_OTEL_ENABLED="true"
//	SPOKE_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Trust mode: %s\n", cfg.Trust.Mode)
package config
