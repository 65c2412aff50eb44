package dispatch

import (
	"context"
	"log/slog"

	"github.com/novamedix/catalog-images/internal/types"
)

// collector owns the write buffer. It is used only from the goroutine that calls Run.
type collector struct {
	d       *Dispatcher
	total   int
	done    int
	slots   []*types.ResolutionResult
	pending []int

	stats         Summary
	failedBatches int
	lastErr       error
}

func newCollector(d *Dispatcher, total int) *collector {
	return &collector{
		d:       d,
		total:   total,
		slots:   make([]*types.ResolutionResult, total),
		pending: make([]int, 0, d.cfg.BatchSize),
	}
}

func (c *collector) add(ctx context.Context, r indexedResult) {
	result := r.result
	c.slots[r.index] = &result
	c.done++
	c.stats.Processed++

	switch {
	case result.Found():
		c.stats.Found++
		c.pending = append(c.pending, r.index)
	case result.Source == types.SourceUnresolved && result.SearchKey == "":
		c.stats.Unresolved++
		c.stats.NotFound++
	default:
		c.stats.NotFound++
	}
	if result.Error != "" {
		c.stats.Exhausted++
	}

	if c.d.OnResult != nil {
		c.d.OnResult(c.done, c.total, result)
	}

	if len(c.pending) >= c.d.cfg.BatchSize {
		c.flush(ctx)
	}
}

// flush writes the buffered assignments, retrying a failed batch once.
func (c *collector) flush(ctx context.Context) {
	if len(c.pending) == 0 {
		return
	}
	batch := c.pending
	c.pending = make([]int, 0, c.d.cfg.BatchSize)
	c.stats.Batches = append(c.stats.Batches, len(batch))

	if c.d.cfg.DryRun {
		c.d.logger.Debug("dry run, batch not written", "size", len(batch))
		return
	}

	assignments := make([]types.ImageAssignment, 0, len(batch))
	for _, idx := range batch {
		r := c.slots[idx]
		assignments = append(assignments, types.ImageAssignment{ItemID: r.ItemID, ImageURL: *r.ImageURL})
	}

	// An in-flight batch is completed even when the run is being canceled.
	writeCtx := context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		var n int64
		n, err = c.d.writer.SetImagesBatch(writeCtx, assignments)
		if err == nil {
			if int(n) < len(assignments) {
				c.d.logger.Debug("some rows already had images", "size", len(assignments), "updated", n)
			}
			break
		}
		c.d.logger.Warn("batch write failed", "attempt", attempt, "size", len(assignments), "error", err)
	}

	persisted := err == nil
	for _, idx := range batch {
		c.slots[idx].Persisted = persisted
	}
	if persisted {
		c.stats.Persisted += len(batch)
		return
	}

	c.failedBatches++
	c.lastErr = err
	c.stats.Unpersisted += len(batch)
	c.d.logger.Error("batch left unpersisted", slog.Int("size", len(batch)), slog.Any("error", err))
}

func (c *collector) summary() Summary {
	s := c.stats
	s.Results = make([]types.ResolutionResult, 0, c.done)
	for _, r := range c.slots {
		if r != nil {
			s.Results = append(s.Results, *r)
		}
	}
	return s
}
