package plugins

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWarmWorkers bounds concurrent state evaluation in WarmStates
const DefaultWarmWorkers = 4

// WarmStates evaluates the state of every result ahead of first use.
// States that are already computed are not recomputed.
func WarmStates(ctx context.Context, results []*DiscoveryResult, workers int) error {
	if workers <= 0 {
		workers = DefaultWarmWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, result := range results {
		if gctx.Err() != nil {
			break
		}

		state := result.PluginFile.State
		if state.IsValueCreated() {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			state.Value()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return cancelled(err)
	}
	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	return nil
}

// Summarize counts results by state, evaluating states as needed
func Summarize(results []*DiscoveryResult) map[PluginFileState]int {
	counts := make(map[PluginFileState]int)
	for _, result := range results {
		counts[result.PluginFile.State.Value()]++
	}
	return counts
}

// UsablePlugins returns the results whose plugin files are valid
func UsablePlugins(results []*DiscoveryResult) []*DiscoveryResult {
	var usable []*DiscoveryResult
	for _, result := range results {
		if result.PluginFile.State.Value().IsUsable() {
			usable = append(usable, result)
		}
	}
	return usable
}
