package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/novamedix/catalog-images/internal/types"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultRequestTimeout bounds a single provider call.
const DefaultRequestTimeout = 10 * time.Second

// Status is the terminal outcome of a lookup.
type Status int

const (
	// StatusNotFound means the provider answered with no usable candidate.
	StatusNotFound Status = iota
	// StatusFound means a candidate was selected.
	StatusFound
	// StatusExhausted means every attempt failed in transport. Callers treat it as not found.
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusExhausted:
		return "exhausted"
	default:
		return "not_found"
	}
}

// Outcome is the result of FindImage.
type Outcome struct {
	URL        string
	Status     Status
	Reason     SelectionReason
	Attempts   int
	Candidates []types.ImageCandidate
	Cached     bool
	Err        error
}

// Found reports whether an image URL was selected.
func (o Outcome) Found() bool {
	return o.Status == StatusFound && o.URL != ""
}

// Config holds the client's query, selection and pacing settings.
type Config struct {
	QuerySuffix    string
	Options        SearchOptions
	Selection      SelectionPolicy
	Retry          RetryPolicy
	RequestTimeout time.Duration
	// RateLimit is the sustained provider calls per second shared by all workers; <= 0 disables it.
	RateLimit float64
	Burst     int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		QuerySuffix:    DefaultSuffix,
		Options:        DefaultSearchOptions(),
		Selection:      DefaultSelectionPolicy(),
		Retry:          DefaultRetryPolicy(),
		RequestTimeout: DefaultRequestTimeout,
		RateLimit:      1,
		Burst:          1,
	}
}

// Client finds one image URL per search key. It is safe for concurrent use; identical
// keys are searched once per client lifetime.
type Client struct {
	provider Provider
	cfg      Config
	limiter  *rate.Limiter
	memo     *cache.Cache
	inflight singleflight.Group
	logger   *slog.Logger
}

// NewClient creates a client for provider.
func NewClient(provider Provider, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	cfg.Options = cfg.Options.withDefaults()

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))
	}

	return &Client{
		provider: provider,
		cfg:      cfg,
		limiter:  limiter,
		memo:     cache.New(cache.NoExpiration, 0),
		logger:   logger.With("component", "search", "provider", provider.Name()),
	}
}

// Query returns the full provider query for a search key.
func (c *Client) Query(key string) string {
	return strings.TrimSpace(strings.TrimSpace(key) + " " + c.cfg.QuerySuffix)
}

// FindImage looks up an image for key. Transport failures are retried within the retry
// budget and then reported as StatusExhausted; FindImage itself never fails.
func (c *Client) FindImage(ctx context.Context, key string) Outcome {
	key = strings.TrimSpace(key)
	if key == "" {
		return Outcome{Status: StatusNotFound}
	}

	if cached, ok := c.memo.Get(key); ok {
		out := cached.(Outcome)
		out.Cached = true
		return out
	}

	v, _, _ := c.inflight.Do(key, func() (interface{}, error) {
		out := c.search(ctx, key)
		if out.Status != StatusExhausted {
			c.memo.SetDefault(key, out)
		}
		return out, nil
	})
	return v.(Outcome)
}

func (c *Client) search(ctx context.Context, key string) Outcome {
	query := c.Query(key)
	logger := c.logger.With("query", query)

	var candidates []types.ImageCandidate
	attempts, err := c.cfg.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Provider: c.provider.Name(), Query: query, Attempt: attempt, Cause: err}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()

		results, err := c.provider.Search(callCtx, query, c.cfg.Options)
		if err != nil {
			logger.Warn("image search attempt failed",
				"attempt", attempt,
				"max_attempts", c.cfg.Retry.MaxAttempts,
				"error", err)
			return &TransportError{Provider: c.provider.Name(), Query: query, Attempt: attempt, Cause: err}
		}
		candidates = results
		return nil
	})
	if err != nil {
		logger.Warn("image search exhausted retries", "attempts", attempts, "error", err)
		return Outcome{Status: StatusExhausted, Attempts: attempts, Err: err}
	}

	chosen, reason, ok := c.cfg.Selection.Select(candidates)
	if !ok {
		logger.Debug("no image candidates", "attempts", attempts)
		return Outcome{Status: StatusNotFound, Attempts: attempts, Candidates: candidates}
	}

	logger.Debug("image selected", "url", chosen.URL, "reason", reason, "candidates", len(candidates))
	return Outcome{
		URL:        chosen.URL,
		Status:     StatusFound,
		Reason:     reason,
		Attempts:   attempts,
		Candidates: candidates,
	}
}
