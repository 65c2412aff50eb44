// Package reuse propagates images already in the catalog to image-less rows with the same name.
package reuse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/novamedix/catalog-images/internal/types"
)

// Store is the subset of the catalog store the resolver needs.
type Store interface {
	ListItemsWithImages(ctx context.Context) ([]types.NamedImage, error)
	ListItemsNeedingImages(ctx context.Context, limit int, includeAllActive bool) ([]types.CatalogItem, error)
	SetImage(ctx context.Context, id, url string) (int64, error)
}

// Outcome summarizes one propagation pass.
type Outcome struct {
	// Updated is the number of rows written (or that would be written in dry-run).
	Updated int
	// Failed is the number of assignments whose write failed; those rows stay eligible for search.
	Failed int
	// Results holds one internal-reuse result per reused row.
	Results []types.ResolutionResult
	// ReusedIDs is the set of rows resolved by this pass.
	ReusedIDs map[string]struct{}
}

// Reused reports whether id was resolved by this pass.
func (o Outcome) Reused(id string) bool {
	_, ok := o.ReusedIDs[id]
	return ok
}

// Resolver assigns existing images to rows of identical trimmed name.
type Resolver struct {
	store  Store
	dryRun bool
	logger *slog.Logger
}

// NewResolver creates a resolver. In dry-run mode assignments are reported but not written.
func NewResolver(store Store, dryRun bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, dryRun: dryRun, logger: logger.With("component", "reuse")}
}

// Propagate runs one pass over the whole active catalog. Names are compared exactly after
// trimming surrounding whitespace; the first image seen for a name wins.
func (r *Resolver) Propagate(ctx context.Context) (Outcome, error) {
	out := Outcome{ReusedIDs: make(map[string]struct{})}

	images, err := r.store.ListItemsWithImages(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read catalog images: %w", err)
	}
	pending, err := r.store.ListItemsNeedingImages(ctx, 0, false)
	if err != nil {
		return out, fmt.Errorf("failed to read catalog items: %w", err)
	}

	byName := BuildIndex(images)
	if len(byName) == 0 || len(pending) == 0 {
		r.logger.Debug("nothing to reuse", "images", len(images), "pending", len(pending))
		return out, nil
	}

	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		if item.HasImage() {
			continue
		}
		url, ok := byName[strings.TrimSpace(item.Name)]
		if !ok {
			continue
		}

		if !r.dryRun {
			n, err := r.store.SetImage(ctx, item.ID, url)
			if err != nil {
				out.Failed++
				r.logger.Warn("failed to reuse image", "item_id", item.ID, "error", err)
				continue
			}
			if n == 0 {
				continue
			}
		}

		imageURL := url
		out.Updated++
		out.ReusedIDs[item.ID] = struct{}{}
		out.Results = append(out.Results, types.ResolutionResult{
			ItemID:    item.ID,
			Clave:     item.Clave,
			Name:      item.Name,
			ImageURL:  &imageURL,
			Source:    types.SourceInternalReuse,
			Persisted: !r.dryRun,
		})
	}

	r.logger.Info("internal reuse complete",
		"updated", out.Updated,
		"failed", out.Failed,
		"dry_run", r.dryRun)
	return out, nil
}

// BuildIndex maps each trimmed name to the first image URL listed for it.
func BuildIndex(images []types.NamedImage) map[string]string {
	index := make(map[string]string, len(images))
	for _, img := range images {
		name := strings.TrimSpace(img.Name)
		if name == "" || img.ImageURL == "" {
			continue
		}
		if _, exists := index[name]; !exists {
			index[name] = img.ImageURL
		}
	}
	return index
}
