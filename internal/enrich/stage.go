// Package enrich adds website, social, press, review, and booking signals to
// discovered leads. Each stage fans out over a bounded worker pool, collects
// results keyed by lead identity, and merges them into the store once every
// task has finished.
package enrich

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kavir10/lead-scoring/internal/model"
)

// Stats are the per-stage counts every stage logs.
type Stats struct {
	Processed int
	Succeeded int
	Found     int
}

// Task computes one lead's result. A returned error is logged and the lead
// keeps its neutral defaults; it never aborts the stage.
type Task[T any] func(ctx context.Context, l model.Lead) (T, error)

// RunStage runs task for every lead with at most workers in flight and
// returns the successful results keyed by lead identity. The only error it
// returns is the context's.
func RunStage[T any](ctx context.Context, stage string, leads []model.Lead, workers int, task Task[T]) (map[model.Key]T, Stats, error) {
	if workers < 1 {
		workers = 1
	}
	log := zap.L().With(zap.String("stage", stage))

	var (
		mu      sync.Mutex
		results = make(map[model.Key]T, len(leads))
		stats   = Stats{Processed: len(leads)}
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, l := range leads {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			v, err := task(gCtx, l)
			if err != nil {
				log.Debug("enrich: task failed", zap.String("lead", l.Name), zap.Error(err))
				return nil
			}
			mu.Lock()
			results[l.Key()] = v
			stats.Succeeded++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return results, stats, nil
}

// Batches splits items into consecutive chunks of at most size.
func Batches[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var out [][]T
	for i := 0; i < len(items); i += size {
		out = append(out, items[i:min(i+size, len(items))])
	}
	return out
}
