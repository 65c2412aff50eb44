// Package search queries an image-search provider for catalog product photos and picks the best candidate.
package search

import (
	"context"

	"github.com/novamedix/catalog-images/internal/types"
)

const (
	// MinResults and MaxResults bound how many candidates are requested per query.
	MinResults = 3
	MaxResults = 5

	SizeMedium     = "Medium"
	TypePhoto      = "photo"
	SafeModerate   = "moderate"
	SafeStrict     = "strict"
	SafeOff        = "off"
	DefaultRegion  = "mx-es"
	DefaultSuffix  = "medicamento farmacia mexico"
	defaultResults = MaxResults
)

// SearchOptions are the provider-side filters for an image query.
type SearchOptions struct {
	MaxResults int
	Size       string
	Type       string
	SafeSearch string
	Region     string
}

// DefaultSearchOptions returns medium-size photo results with moderate safe search.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MaxResults: defaultResults,
		Size:       SizeMedium,
		Type:       TypePhoto,
		SafeSearch: SafeModerate,
		Region:     DefaultRegion,
	}
}

// withDefaults fills empty fields and clamps MaxResults into [MinResults, MaxResults].
func (o SearchOptions) withDefaults() SearchOptions {
	d := DefaultSearchOptions()
	if o.MaxResults == 0 {
		o.MaxResults = d.MaxResults
	}
	o.MaxResults = min(max(o.MaxResults, MinResults), MaxResults)
	if o.Size == "" {
		o.Size = d.Size
	}
	if o.Type == "" {
		o.Type = d.Type
	}
	if o.SafeSearch == "" {
		o.SafeSearch = d.SafeSearch
	}
	if o.Region == "" {
		o.Region = d.Region
	}
	return o
}

// Provider is an external image-search backend. Results are ordered by provider relevance
// and carry no stability guarantee across calls.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, opts SearchOptions) ([]types.ImageCandidate, error)
}
