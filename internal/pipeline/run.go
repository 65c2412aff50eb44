// Package pipeline provides the high-level orchestration for a catalog image run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/novamedix/catalog-images/internal/config"
	"github.com/novamedix/catalog-images/internal/dispatch"
	"github.com/novamedix/catalog-images/internal/reuse"
	"github.com/novamedix/catalog-images/internal/runlog"
	"github.com/novamedix/catalog-images/internal/search"
	"github.com/novamedix/catalog-images/internal/types"
)

// Pipeline steps, in execution order.
const (
	StepReset   = "reset"
	StepReuse   = "reuse"
	StepList    = "list"
	StepSearch  = "search"
	StepRunLog  = "run_log"
	StepSummary = "summary"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string                  `json:"step"`
	Message string                  `json:"message"`
	RunID   string                  `json:"run_id,omitempty"`
	Done    int                     `json:"done,omitempty"`
	Total   int                     `json:"total,omitempty"`
	Result  *types.ResolutionResult `json:"result,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Config     config.Config      // Fully resolved and validated
	Store      types.CatalogStore // Required
	Provider   search.Provider    // Required
	RunID      string             // Generated when empty
	Logger     *slog.Logger
	OnProgress ProgressCallback
}

// RunResult is what a finished (or partially finished) run produced.
type RunResult struct {
	Report  types.RunReport
	Reused  []types.ResolutionResult
	Results []types.ResolutionResult
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, event ProgressEvent) {
	if opts.OnProgress != nil {
		event.RunID = opts.RunID
		opts.OnProgress(event)
	}
}

// RunPipeline runs reset, internal reuse, external search and the run log, in that order.
// Reuse always commits before any search starts. The run log is written even when the
// search phase ends with a persistence error or cancellation; that error is returned
// together with the result.
func RunPipeline(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Store == nil {
		return nil, errors.New("pipeline: store is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("pipeline: search provider is required")
	}
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := opts.Config
	logger := opts.Logger.With("run_id", opts.RunID)
	result := &RunResult{Report: types.RunReport{RunID: opts.RunID, DryRun: cfg.DryRun}}

	normalizer, err := NewNormalizer(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("starting run",
		"limit", cfg.Limit,
		"reset", cfg.Reset,
		"dry_run", cfg.DryRun,
		"mode", normalizer.Mode(),
		"workers", cfg.Workers)

	// Step 1: reset
	if cfg.Reset {
		if cfg.DryRun {
			logger.Warn("dry run: images are not cleared")
		} else {
			cleared, err := opts.Store.ClearAllImages(ctx)
			if err != nil {
				return nil, fmt.Errorf("reset failed: %w", err)
			}
			result.Report.Cleared = cleared
			emitProgress(&opts, ProgressEvent{Step: StepReset, Message: fmt.Sprintf("cleared %d images", cleared)})
		}
	}

	// Step 2: internal reuse; after a reset nothing is left to propagate
	var reused reuse.Outcome
	if cfg.Reset && cfg.DryRun {
		logger.Info("dry run with reset: internal reuse has no images to propagate")
	} else {
		reused, err = reuse.NewResolver(opts.Store, cfg.DryRun, logger).Propagate(ctx)
		if err != nil {
			return nil, fmt.Errorf("internal reuse failed: %w", err)
		}
	}
	result.Reused = reused.Results
	result.Report.Reused = reused.Updated
	for i := range reused.Results {
		emitProgress(&opts, ProgressEvent{
			Step:   StepReuse,
			Done:   i + 1,
			Total:  len(reused.Results),
			Result: &reused.Results[i],
		})
	}

	// Step 3: list and filter candidates for search
	items, err := opts.Store.ListItemsNeedingImages(ctx, cfg.Limit, cfg.Reset)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for search: %w", err)
	}
	pending := items[:0]
	for _, item := range items {
		if reused.Reused(item.ID) {
			continue
		}
		pending = append(pending, item)
	}
	emitProgress(&opts, ProgressEvent{Step: StepList, Message: fmt.Sprintf("%d items to search", len(pending)), Total: len(pending)})
	logger.Info("items selected for search", "count", len(pending))

	// Step 4: external search
	client := search.NewClient(opts.Provider, SearchConfig(cfg), logger)
	var writer dispatch.BatchWriter
	if !cfg.DryRun {
		writer = opts.Store
	}
	dispatcher := dispatch.New(client, normalizer.Normalize, writer, dispatch.Config{
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
		Delay:     cfg.Delay(),
		Jitter:    cfg.Jitter(),
		DryRun:    cfg.DryRun,
	}, logger)
	dispatcher.OnResult = func(done, total int, r types.ResolutionResult) {
		emitProgress(&opts, ProgressEvent{Step: StepSearch, Done: done, Total: total, Result: &r})
	}

	summary, searchErr := dispatcher.Run(ctx, pending)
	result.Results = summary.Results
	report := &result.Report
	report.Processed = summary.Processed
	report.Found = summary.Found
	report.NotFound = summary.NotFound
	report.Unresolved = summary.Unresolved
	report.Exhausted = summary.Exhausted
	report.Unpersisted = summary.Unpersisted
	report.Batches = len(summary.Batches)

	// Step 5: run log
	if cfg.LogPath != "" {
		records := runlog.FromResults(opts.RunID, append(append([]types.ResolutionResult{}, result.Reused...), result.Results...))
		if err := runlog.Write(cfg.LogPath, cfg.LogFormat, records); err != nil {
			logger.Error("failed to write run log", "path", cfg.LogPath, "error", err)
			if searchErr == nil {
				return result, err
			}
		} else {
			report.LogPath = cfg.LogPath
			emitProgress(&opts, ProgressEvent{Step: StepRunLog, Message: fmt.Sprintf("wrote %d records to %s", len(records), cfg.LogPath)})
		}
	}

	// Step 6: summary counts
	if !cfg.DryRun {
		countCtx := context.WithoutCancel(ctx)
		total, withImage, err := opts.Store.CountActive(countCtx)
		if err != nil {
			logger.Warn("failed to count catalog coverage", "error", err)
		} else {
			report.ActiveTotal = total
			report.WithImage = withImage
		}
	}
	emitProgress(&opts, ProgressEvent{Step: StepSummary, Message: "run complete"})

	logger.Info("run finished",
		"reused", report.Reused,
		"found", report.Found,
		"not_found", report.NotFound,
		"unpersisted", report.Unpersisted)

	return result, searchErr
}
