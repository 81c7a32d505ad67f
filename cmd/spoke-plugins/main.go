package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platinummonkey/spoke-discovery/pkg/config"
	"github.com/platinummonkey/spoke-discovery/pkg/observability"
	"github.com/platinummonkey/spoke-discovery/pkg/plugins"
	"github.com/platinummonkey/spoke-discovery/pkg/trust"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Flags holds command-line overrides
type Flags struct {
	LogLevel     string
	Warm         bool
	ServeMetrics bool
	Watch        bool
	Timeout      time.Duration
}

// Plugin host: discovers plugins, reports their state, and optionally keeps serving metrics
func main() {
	flags := parseFlags()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogger(cfg.Observability.LogLevel, flags.LogLevel)
	logger.Info("Starting Spoke plugin discovery")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}

	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	verifier, err := buildVerifier(cfg.Trust, logger, metrics)
	if err != nil {
		logger.Fatalf("Failed to build signature verifier: %v", err)
	}

	home := cfg.Plugins.HomeDir
	if home == "" {
		home = plugins.HomePluginsDirectory()
	}
	internal := cfg.Plugins.InternalDir
	if internal == "" {
		internal = plugins.InternalPluginsDirectory()
	}

	newDiscoverer := func() *plugins.Discoverer {
		discoverer, err := plugins.NewDiscoverer(cfg.Plugins.RawPaths, verifier, logger)
		if err != nil {
			logger.Fatalf("Failed to create plugin discoverer: %v", err)
		}
		discoverer.SetPluginDirectories(home, internal)
		discoverer.SetMetrics(metrics)
		return discoverer
	}

	discoverer := newDiscoverer()
	if err := run(ctx, discoverer, cfg, flags, logger); err != nil {
		logger.Errorf("Plugin discovery failed: %v", err)
	}

	var server *http.Server
	if cfg.Observability.MetricsEnabled && flags.ServeMetrics {
		server = startMetricsServer(cfg.Observability.MetricsAddr, registry, logger)
	}

	manager := observability.NewShutdownManager(logger, server, 10*time.Second)
	manager.RegisterShutdownFunc(func(context.Context) error {
		return discoverer.Close()
	})
	manager.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	if flags.Watch && cfg.Plugins.RawPaths != "" {
		logger.Warn("Watching is only supported for convention plugin directories")
	}

	switch {
	case flags.Watch && cfg.Plugins.RawPaths == "":
		watchPlugins(ctx, []string{home, internal}, cfg, logger, func() {
			discoverer.Close()
			discoverer = newDiscoverer()
			if err := run(ctx, discoverer, cfg, flags, logger); err != nil {
				logger.Errorf("Plugin discovery failed: %v", err)
			}
		})
		err = manager.Shutdown(context.Background())
	case server != nil:
		logger.Infof("Serving metrics on %s until interrupted", cfg.Observability.MetricsAddr)
		err = manager.WaitForShutdown(ctx)
	default:
		err = manager.Shutdown(context.Background())
	}
	if err != nil {
		logger.Errorf("Shutdown failed: %v", err)
		os.Exit(1)
	}
}

func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flag.BoolVar(&flags.Warm, "warm", true, "Verify every discovered plugin before reporting")
	flag.BoolVar(&flags.ServeMetrics, "serve-metrics", false, "Keep serving /metrics after discovery")
	flag.BoolVar(&flags.Watch, "watch", false, "Rediscover plugins when plugin directories change")
	flag.DurationVar(&flags.Timeout, "timeout", time.Minute, "Discovery timeout")

	flag.Parse()

	return flags
}

func setupLogger(level logrus.Level, override string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if override != "" {
		if parsed, err := logrus.ParseLevel(override); err == nil {
			level = parsed
		}
	}
	logger.SetLevel(level)

	return logger
}

func buildVerifier(cfg config.TrustConfig, logger *logrus.Logger, metrics *observability.Metrics) (plugins.SignatureVerifier, error) {
	var base trust.Verifier

	switch cfg.Mode {
	case config.TrustModeAllowAll:
		logger.Warn("Trust mode allow-all: every plugin file is trusted")
		base = trust.AllowAll{}
	case config.TrustModeDenyAll:
		base = trust.DenyAll{}
	default:
		manifest, err := trust.LoadManifest(cfg.ManifestPath)
		if err != nil {
			return nil, err
		}
		base = trust.NewChecksumVerifier(manifest, logger)
	}

	if cfg.CacheSize == 0 {
		return base, nil
	}

	return trust.NewCachingVerifier(base, &trust.CacheConfig{
		MaxEntries:  cfg.CacheSize,
		TTL:         cfg.CacheTTL,
		Fingerprint: cfg.CacheFingerprint,
	}, metrics)
}

func run(ctx context.Context, discoverer *plugins.Discoverer, cfg *config.Config, flags *Flags, logger *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, flags.Timeout)
	defer cancel()

	start := time.Now()
	results, err := discoverer.Discover(ctx)
	if err != nil {
		return err
	}

	if flags.Warm {
		if err := plugins.WarmStates(ctx, results, cfg.Plugins.WarmWorkers); err != nil {
			return fmt.Errorf("failed to verify plugins: %w", err)
		}
	}

	report(results, flags.Warm, time.Since(start), logger)

	return nil
}

// report logs the inventory. Without warm-up only paths are logged so that no
// plugin file is verified on behalf of the report.
func report(results []*plugins.DiscoveryResult, warm bool, elapsed time.Duration, logger *logrus.Logger) {
	if !warm {
		for _, result := range results {
			logger.WithField("path", result.PluginFile.Path).Info("Plugin file discovered")
		}
		logger.Infof("Discovery finished in %v: %d plugin file(s), verification deferred", elapsed, len(results))
		return
	}

	for _, result := range results {
		file := result.PluginFile
		state := file.State.Value()
		entry := logger.WithFields(logrus.Fields{
			"path":  file.Path,
			"state": state,
		})
		if state.IsUsable() {
			entry.Info("Plugin available")
		} else {
			entry.Warn("Plugin unusable")
		}
	}

	summary := plugins.Summarize(results)
	logger.Infof("Discovery finished in %v: %d plugin file(s), %d usable",
		elapsed, len(results), summary[plugins.PluginFileStateValid])
}

// watchPlugins blocks until ctx is done, calling rediscover after each burst of changes
func watchPlugins(ctx context.Context, directories []string, cfg *config.Config, logger *logrus.Logger, rediscover func()) {
	watcher, err := plugins.NewDirectoryWatcher(directories, cfg.Plugins.WatchDebounce, logger)
	if err != nil {
		logger.Errorf("Failed to watch plugin directories: %v", err)
		return
	}
	defer watcher.Close()

	logger.Info("Watching plugin directories for changes")
	if err := watcher.Run(ctx, func() {
		logger.Info("Plugin directories changed, rediscovering")
		rediscover()
	}); err != nil {
		logger.Errorf("Plugin directory watcher failed: %v", err)
	}
}

func startMetricsServer(addr string, registry *prometheus.Registry, logger *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	observability.RegisterMetricsEndpoint(mux, registry)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server failed: %v", err)
		}
	}()

	return server
}
