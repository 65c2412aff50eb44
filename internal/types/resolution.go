package types

// ResolutionSource identifies which tier resolved (or failed to resolve) an item.
type ResolutionSource string

const (
	SourceInternalReuse  ResolutionSource = "internal-reuse"
	SourceExternalSearch ResolutionSource = "external-search"
	SourceUnresolved     ResolutionSource = "unresolved"
)

// ImageCandidate is a single image result returned by a search provider.
type ImageCandidate struct {
	URL          string `json:"image"`
	PageURL      string `json:"url,omitempty"`
	Title        string `json:"title,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	SourceDomain string `json:"source_domain,omitempty"`
}

// ResolutionResult is the outcome of the pipeline for one catalog item in one run.
type ResolutionResult struct {
	ItemID    string           `json:"id"`
	Clave     string           `json:"clave"`
	Name      string           `json:"nombre"`
	SearchKey string           `json:"search"`
	ImageURL  *string          `json:"image"`
	Source    ResolutionSource `json:"source"`
	Persisted bool             `json:"persisted"`
	Attempts  int              `json:"attempts,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Found reports whether an image URL was resolved.
func (r ResolutionResult) Found() bool {
	return r.ImageURL != nil && *r.ImageURL != ""
}

// Status returns the run-log status string for the result.
func (r ResolutionResult) Status() string {
	if r.Found() {
		return "found"
	}
	return "not_found"
}
