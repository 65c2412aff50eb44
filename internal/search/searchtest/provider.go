// Package searchtest provides an in-memory image search provider for tests.
package searchtest

import (
	"context"
	"strings"
	"sync"

	"github.com/novamedix/catalog-images/internal/search"
	"github.com/novamedix/catalog-images/internal/types"
)

// Provider answers queries from a fixed table keyed by search key (the query minus the suffix).
// It records every call and is safe for concurrent use.
type Provider struct {
	// Results maps a search key to the candidates returned for it.
	Results map[string][]types.ImageCandidate
	// Errors maps a search key to an error returned on every call.
	Errors map[string]error
	// Suffix is stripped from incoming queries before lookup.
	Suffix string
	// Hook, when set, runs at the start of every call.
	Hook func(ctx context.Context, key string)

	mu    sync.Mutex
	calls []string
}

// New returns an empty provider that strips the default query suffix.
func New() *Provider {
	return &Provider{
		Results: make(map[string][]types.ImageCandidate),
		Errors:  make(map[string]error),
		Suffix:  search.DefaultSuffix,
	}
}

// WithImage registers a single candidate URL for key.
func (p *Provider) WithImage(key, url string) *Provider {
	p.Results[key] = []types.ImageCandidate{{URL: url, Width: 400, Height: 400}}
	return p
}

// Name implements search.Provider.
func (p *Provider) Name() string {
	return "fake"
}

// Search implements search.Provider.
func (p *Provider) Search(ctx context.Context, query string, _ search.SearchOptions) ([]types.ImageCandidate, error) {
	key := strings.TrimSpace(strings.TrimSuffix(query, p.Suffix))

	p.mu.Lock()
	p.calls = append(p.calls, key)
	p.mu.Unlock()

	if p.Hook != nil {
		p.Hook(ctx, key)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := p.Errors[key]; ok {
		return nil, err
	}
	return p.Results[key], nil
}

// Calls returns the keys searched so far, in call order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// CallCount returns how many times key was searched.
func (p *Provider) CallCount(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c == key {
			n++
		}
	}
	return n
}
