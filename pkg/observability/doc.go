// Package observability provides Prometheus metrics, OpenTelemetry setup, and graceful shutdown
// for plugin discovery hosts.
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	discoverer.SetMetrics(metrics)
//
// Expose them:
//
//	mux := http.NewServeMux()
//	observability.RegisterMetricsEndpoint(mux, registry)
//
// All Record* methods are no-ops on a nil *Metrics, so libraries can call
// them unconditionally.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "spoke-plugins",
//		Insecure:    true,
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// TraceFields attaches trace and span IDs to logrus entries.
//
// # Graceful Shutdown
//
//	manager := observability.NewShutdownManager(logger, server, 10*time.Second)
//	manager.RegisterShutdownFunc(func(context.Context) error {
//		return discoverer.Close()
//	})
//	manager.WaitForShutdown(ctx)
package observability
