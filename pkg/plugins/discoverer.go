package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/spoke-discovery/pkg/observability"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const tracerName = "github.com/platinummonkey/spoke-discovery/pkg/plugins"

// Discoverer discovers plugin files and caches the inventory for its lifetime.
//
// Candidate resolution runs at most once per successful discovery. Concurrent
// callers wait on a single gate and share the result; each file's state is
// evaluated lazily on first read.
type Discoverer struct {
	rawPluginPaths string
	verifier       SignatureVerifier
	log            *logrus.Logger
	tracer         trace.Tracer

	mu          sync.RWMutex
	source      ConventionSource
	homeDir     string
	internalDir string
	metrics     *observability.Metrics

	gate    atomic.Pointer[semaphore.Weighted]
	state   atomic.Int32
	results atomic.Pointer[[]*DiscoveryResult]
}

// NewDiscoverer creates a discoverer.
//
// rawPluginPaths is a semicolon-delimited list of plugin file paths; when it is
// empty the convention-based plugin directories are scanned instead.
func NewDiscoverer(rawPluginPaths string, verifier SignatureVerifier, log *logrus.Logger) (*Discoverer, error) {
	if isNilVerifier(verifier) {
		return nil, fmt.Errorf("%w: signature verifier is required", ErrInvalidConfiguration)
	}

	if log == nil {
		log = logrus.New()
	}

	d := &Discoverer{
		rawPluginPaths: rawPluginPaths,
		verifier:       verifier,
		log:            log,
		tracer:         otel.Tracer(tracerName),
		source:         NewFileSystemConventionSource(log),
		homeDir:        HomePluginsDirectory(),
		internalDir:    InternalPluginsDirectory(),
	}
	d.gate.Store(semaphore.NewWeighted(1))

	return d, nil
}

// SetConventionSource replaces the source used when no explicit paths are configured
func (d *Discoverer) SetConventionSource(source ConventionSource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.source = source
}

// SetPluginDirectories sets the home and internal plugin directories.
// An empty internal directory disables it.
func (d *Discoverer) SetPluginDirectories(home, internal string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.homeDir = home
	d.internalDir = internal
}

// SetMetrics enables Prometheus metrics
func (d *Discoverer) SetMetrics(metrics *observability.Metrics) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics = metrics
}

// CacheState returns the current state of the inventory cache
func (d *Discoverer) CacheState() CacheState {
	return CacheState(d.state.Load())
}

// Close releases the discoverer's gate. It is safe to call more than once and
// concurrently with Discover. A cached inventory remains readable after Close.
func (d *Discoverer) Close() error {
	d.gate.Swap(nil)
	return nil
}

// Discover returns the plugin inventory, resolving it on first use.
//
// Only cancellation and closed-discoverer failures are returned as errors; a
// missing or untrusted plugin is reported through its PluginFile state.
func (d *Discoverer) Discover(ctx context.Context) ([]*DiscoveryResult, error) {
	metrics := d.getMetrics()

	if err := ctx.Err(); err != nil {
		metrics.RecordDiscover(observability.OutcomeCancelled)
		return nil, cancelled(err)
	}

	if results := d.results.Load(); results != nil {
		metrics.RecordDiscover(observability.OutcomeCached)
		return *results, nil
	}

	gate := d.gate.Load()
	if gate == nil {
		metrics.RecordDiscover(observability.OutcomeDisposed)
		return nil, ErrDisposed
	}

	if err := gate.Acquire(ctx, 1); err != nil {
		metrics.RecordDiscover(observability.OutcomeCancelled)
		return nil, cancelled(err)
	}
	defer gate.Release(1)

	if results := d.results.Load(); results != nil {
		metrics.RecordDiscover(observability.OutcomeCached)
		return *results, nil
	}

	d.state.Store(int32(CacheStateInProgress))

	results, err := d.discover(ctx)
	if err != nil {
		d.state.Store(int32(CacheStateNone))
		if errors.Is(err, ErrCancelled) {
			metrics.RecordDiscover(observability.OutcomeCancelled)
		} else {
			metrics.RecordDiscover(observability.OutcomeError)
		}
		return nil, err
	}

	d.results.Store(&results)
	d.state.Store(int32(CacheStateReady))
	metrics.RecordDiscover(observability.OutcomeScanned)
	metrics.SetInventorySize(len(results))
	recordRejectedPaths(metrics, results)

	return results, nil
}

func (d *Discoverer) discover(ctx context.Context) ([]*DiscoveryResult, error) {
	attemptID := uuid.New().String()
	log := d.log.WithField("attempt_id", attemptID)

	ctx, span := d.tracer.Start(ctx, "plugins.Discover",
		trace.WithAttributes(attribute.String("attempt_id", attemptID)))
	defer span.End()
	log = log.WithFields(observability.TraceFields(ctx))

	files, err := d.getPluginFiles(ctx, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Debugf("Plugin discovery attempt aborted: %v", err)
		return nil, err
	}

	results := make([]*DiscoveryResult, 0, len(files))
	for _, file := range files {
		results = append(results, &DiscoveryResult{PluginFile: file})
	}

	span.SetAttributes(attribute.Int("plugin_files", len(results)))
	log.Infof("Discovered %d plugin file(s)", len(results))

	return results, nil
}

func (d *Discoverer) getPluginFiles(ctx context.Context, log *logrus.Entry) ([]*PluginFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	filePaths, err := d.getPluginFilePaths(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]*PluginFile, 0, len(filePaths))
	for _, filePath := range filePaths {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}

		var state *Lazy[PluginFileState]
		if ClassifyPath(filePath) == PathAcceptable {
			state = NewLazy(d.validityCheck(filePath, log))
		} else {
			log.WithField("path", filePath).Warn("Rejecting malformed plugin path")
			state = NewLazyValue(PluginFileStateInvalidFilePath)
		}

		files = append(files, NewPluginFile(filePath, state))
	}

	return files, nil
}

// validityCheck builds the deferred state computation for an acceptable path
func (d *Discoverer) validityCheck(filePath string, log *logrus.Entry) func() PluginFileState {
	return func() PluginFileState {
		state := d.evaluate(filePath)
		d.getMetrics().RecordPluginFileState(string(state))
		log.WithFields(logrus.Fields{
			"path":  filePath,
			"state": state,
		}).Debug("Evaluated plugin file")
		return state
	}
}

func (d *Discoverer) evaluate(filePath string) PluginFileState {
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return PluginFileStateNotFound
	}

	if d.verifier.IsValid(filePath) {
		return PluginFileStateValid
	}
	return PluginFileStateInvalidEmbeddedSignature
}

func (d *Discoverer) getPluginFilePaths(ctx context.Context) ([]string, error) {
	if d.rawPluginPaths != "" {
		return splitPluginPaths(d.rawPluginPaths), nil
	}

	d.mu.RLock()
	source := d.source
	directories := []string{d.homeDir}
	if d.internalDir != "" {
		directories = append(directories, d.internalDir)
	}
	metrics := d.metrics
	d.mu.RUnlock()

	ctx, span := d.tracer.Start(ctx, "plugins.resolveCandidates",
		trace.WithAttributes(attribute.StringSlice("directories", directories)))
	defer span.End()

	start := time.Now()
	paths, err := source.ResolveConventionPaths(ctx, directories)
	if err != nil {
		metrics.RecordScan("convention", "failed", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelled(ctxErr)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, cancelled(err)
		}
		return nil, fmt.Errorf("%w: %w", ErrCandidateResolution, err)
	}
	metrics.RecordScan("convention", "success", time.Since(start))

	return paths, nil
}

func (d *Discoverer) getMetrics() *observability.Metrics {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.metrics
}

// recordRejectedPaths counts paths rejected during classification once the
// inventory is published. Other states are counted when first evaluated.
func recordRejectedPaths(metrics *observability.Metrics, results []*DiscoveryResult) {
	for _, result := range results {
		state := result.PluginFile.State
		if state.IsValueCreated() && state.Value() == PluginFileStateInvalidFilePath {
			metrics.RecordPluginFileState(string(PluginFileStateInvalidFilePath))
		}
	}
}

func isNilVerifier(verifier SignatureVerifier) bool {
	if verifier == nil {
		return true
	}
	f, ok := verifier.(SignatureVerifierFunc)
	return ok && f == nil
}

// splitPluginPaths splits a semicolon-delimited path list, dropping empty entries
func splitPluginPaths(raw string) []string {
	parts := strings.Split(raw, ";")
	paths := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			paths = append(paths, part)
		}
	}
	return paths
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
