// Package dispatch resolves catalog items through the search client with a bounded worker
// pool and persists found images in batches from a single collector.
package dispatch

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/novamedix/catalog-images/internal/search"
	"github.com/novamedix/catalog-images/internal/types"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers   = 4
	DefaultBatchSize = 50
)

// Searcher finds an image for a search key.
type Searcher interface {
	FindImage(ctx context.Context, key string) search.Outcome
}

// BatchWriter persists image assignments in one operation.
type BatchWriter interface {
	SetImagesBatch(ctx context.Context, assignments []types.ImageAssignment) (int64, error)
}

// KeyFunc derives the search key for a product name.
type KeyFunc func(name string) string

// Config controls pool size, batching and pacing.
type Config struct {
	Workers   int
	BatchSize int
	// Delay and Jitter pace each worker before every search: Delay + rand[0, Jitter).
	Delay  time.Duration
	Jitter time.Duration
	DryRun bool
}

// Summary is the aggregate result of a dispatch run.
type Summary struct {
	Processed   int
	Found       int
	NotFound    int
	Unresolved  int
	Exhausted   int
	Persisted   int
	Unpersisted int
	// Batches holds the size of every flushed batch, in flush order.
	Batches []int
	// Results are ordered like the input items. Items skipped by cancellation are absent.
	Results []types.ResolutionResult
}

// Dispatcher runs the search phase.
type Dispatcher struct {
	searcher Searcher
	keyFn    KeyFunc
	writer   BatchWriter
	cfg      Config
	logger   *slog.Logger

	// OnResult, when set, is called from the collector goroutine as each item completes.
	OnResult func(done, total int, result types.ResolutionResult)
}

// New creates a dispatcher. writer may be nil in dry-run mode.
func New(searcher Searcher, keyFn KeyFunc, writer BatchWriter, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	if writer == nil {
		cfg.DryRun = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		searcher: searcher,
		keyFn:    keyFn,
		writer:   writer,
		cfg:      cfg,
		logger:   logger.With("component", "dispatch"),
	}
}

type indexedResult struct {
	index  int
	result types.ResolutionResult
}

// Run resolves items and flushes found images every BatchSize results and once at the end.
// Search failures never abort the run. A batch that fails twice leaves its items unpersisted
// and Run returns a *PersistenceError once every item has been processed. On cancellation
// no new items are started, buffered results are flushed and ctx.Err() is returned.
func (d *Dispatcher) Run(ctx context.Context, items []types.CatalogItem) (Summary, error) {
	var summary Summary
	if len(items) == 0 {
		return summary, nil
	}

	resultsCh := make(chan indexedResult, d.cfg.Workers)

	go func() {
		defer close(resultsCh)

		var g errgroup.Group
		g.SetLimit(d.cfg.Workers)
		for i, item := range items {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if result, ok := d.resolve(ctx, item); ok {
					resultsCh <- indexedResult{index: i, result: result}
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	c := newCollector(d, len(items))
	for r := range resultsCh {
		c.add(ctx, r)
	}
	c.flush(ctx)

	summary = c.summary()
	d.logger.Info("dispatch complete",
		"processed", summary.Processed,
		"found", summary.Found,
		"not_found", summary.NotFound,
		"unpersisted", summary.Unpersisted,
		"batches", len(summary.Batches))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	if c.failedBatches > 0 {
		return summary, &PersistenceError{Unpersisted: summary.Unpersisted, Batches: c.failedBatches, Cause: c.lastErr}
	}
	return summary, nil
}

// resolve computes the result for one item. It never touches the store. ok is false when
// the item was abandoned because ctx ended.
func (d *Dispatcher) resolve(ctx context.Context, item types.CatalogItem) (types.ResolutionResult, bool) {
	if err := d.pause(ctx); err != nil {
		return types.ResolutionResult{}, false
	}

	key := d.keyFn(item.Name)
	result := types.ResolutionResult{
		ItemID:    item.ID,
		Clave:     item.Clave,
		Name:      item.Name,
		SearchKey: key,
		Source:    types.SourceUnresolved,
	}
	if key == "" {
		return result, true
	}

	out := d.searcher.FindImage(ctx, key)
	if !out.Found() && ctx.Err() != nil {
		return types.ResolutionResult{}, false
	}

	result.Attempts = out.Attempts
	if out.Err != nil {
		result.Error = out.Err.Error()
	}
	if out.Found() {
		url := out.URL
		result.ImageURL = &url
		result.Source = types.SourceExternalSearch
	}
	return result, true
}

func (d *Dispatcher) pause(ctx context.Context) error {
	wait := d.cfg.Delay
	if d.cfg.Jitter > 0 {
		wait += rand.N(d.cfg.Jitter)
	}
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
