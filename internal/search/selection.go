package search

import (
	"strings"

	"github.com/novamedix/catalog-images/internal/types"
)

// DefaultPreferredDomains are retailer and pharmacy hosts whose photos usually show the actual product.
var DefaultPreferredDomains = []string{
	"fahorro.com", "superama.com", "farmaciasguadalajara",
	"farmaciasbenavides", "walmart.com", "chedraui.com",
	"mercadolibre", "amazon.com", "plm.com", "farmalisto",
	"sanpablo.com", "pfrancesa.com", "lacomer.com",
	"farmaciasdelahorro", "cornershop",
}

// SelectionPolicy decides which candidate of a result set is used.
type SelectionPolicy struct {
	PreferredDomains []string
	MinWidth         int
	MinHeight        int
}

// DefaultSelectionPolicy returns the allow-list above and a 200x200 minimum.
func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		PreferredDomains: DefaultPreferredDomains,
		MinWidth:         200,
		MinHeight:        200,
	}
}

// SelectionReason records which rule picked a candidate.
type SelectionReason string

const (
	ReasonPreferredDomain SelectionReason = "preferred-domain"
	ReasonMinDimensions   SelectionReason = "min-dimensions"
	ReasonFirstResult     SelectionReason = "first-result"
)

// Select returns the chosen candidate. Rules, in order: the first candidate hosted on a
// preferred domain, then the first meeting the minimum dimensions, then the first candidate.
func (p SelectionPolicy) Select(candidates []types.ImageCandidate) (types.ImageCandidate, SelectionReason, bool) {
	usable := make([]types.ImageCandidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.URL) != "" {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return types.ImageCandidate{}, "", false
	}

	for _, c := range usable {
		if p.preferred(c) {
			return c, ReasonPreferredDomain, true
		}
	}

	for _, c := range usable {
		if c.Width >= p.MinWidth && c.Height >= p.MinHeight {
			return c, ReasonMinDimensions, true
		}
	}

	return usable[0], ReasonFirstResult, true
}

func (p SelectionPolicy) preferred(c types.ImageCandidate) bool {
	domain := c.SourceDomain
	if domain == "" {
		domain = hostOf(c.URL)
	}
	if domain == "" {
		return false
	}
	for _, d := range p.PreferredDomains {
		if d != "" && strings.Contains(domain, strings.ToLower(d)) {
			return true
		}
	}
	return false
}
