package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/metrics"
)

// GenerateBatch produces one record per identifier, in input order. It never fails.
// At most Config.Concurrency items run at once; a failing item only affects its own slot.
func (g *Generator) GenerateBatch(ctx context.Context, parts []string, opts Options) []entity.PartRecord {
	results := g.RunBatch(ctx, parts, opts)
	out := make([]entity.PartRecord, len(results))
	for i, r := range results {
		out[i] = r.Record
	}
	return out
}

// RunBatch is GenerateBatch with per-item diagnostics.
func (g *Generator) RunBatch(ctx context.Context, parts []string, opts Options) []Result {
	results := make([]Result, len(parts))
	if len(parts) == 0 {
		return results
	}
	ctx = common.WithAction(ctx, "batch-generate")

	g.logger.Info("pipeline.batch.start", "items", len(parts), "concurrency", g.cfg.Concurrency)

	var (
		mu   sync.Mutex
		done int
	)
	var eg errgroup.Group
	eg.SetLimit(g.cfg.Concurrency)
	for i, part := range parts {
		eg.Go(func() error {
			metrics.BatchInFlight.Inc()
			defer metrics.BatchInFlight.Dec()

			res := g.generate(ctx, part, opts)
			results[i] = res

			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(done, len(parts), res.Record)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	fallbacks := 0
	for _, r := range results {
		if r.Fallback() {
			fallbacks++
		}
	}
	g.logger.Info("pipeline.batch.done", "items", len(parts), "fallbacks", fallbacks)
	return results
}
