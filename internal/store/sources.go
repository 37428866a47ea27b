package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/models"
)

// SourceRegistry is the in-memory source registry. It exclusively owns
// every record; callers only ever see copies.
type SourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]*models.Source
	order   []string
}

func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{sources: make(map[string]*models.Source)}
}

func (r *SourceRegistry) Create(ctx context.Context, src *models.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[src.SourceID]; ok {
		return fmt.Errorf("source %s: %w", src.SourceID, api.ErrConflict)
	}
	r.sources[src.SourceID] = src.Clone()
	r.order = append(r.order, src.SourceID)
	return nil
}

func (r *SourceRegistry) Get(ctx context.Context, id string) (*models.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("source %s: %w", id, api.ErrNotFound)
	}
	return src.Clone(), nil
}

// Update replaces every field except the id.
func (r *SourceRegistry) Update(ctx context.Context, id string, src *models.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[id]; !ok {
		return fmt.Errorf("source %s: %w", id, api.ErrNotFound)
	}
	cp := src.Clone()
	cp.SourceID = id
	r.sources[id] = cp
	return nil
}

func (r *SourceRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[id]; !ok {
		return fmt.Errorf("source %s: %w", id, api.ErrNotFound)
	}
	delete(r.sources, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List filters by type and status (empty string matches everything) and
// paginates in insertion order. Out-of-range pages come back empty.
func (r *SourceRegistry) List(ctx context.Context, sourceType, status string, offset, limit int) ([]*models.Source, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]*models.Source, 0, len(r.order))
	for _, id := range r.order {
		src := r.sources[id]
		if sourceType != "" && src.Type != sourceType {
			continue
		}
		if status != "" && src.Status != status {
			continue
		}
		matched = append(matched, src)
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]*models.Source, 0, end-offset)
	for _, src := range matched[offset:end] {
		page = append(page, src.Clone())
	}
	return page, nil
}

// Stats aggregates totals, per-type counts and average credibility
// across sources that carry a score.
func (r *SourceRegistry) Stats(ctx context.Context) (*models.SourceStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &models.SourceStats{SourceTypes: make(map[string]int)}
	var sum float64
	var scored int
	for _, src := range r.sources {
		stats.TotalSources++
		if src.Status == models.SourceActive {
			stats.ActiveSources++
		}
		stats.SourceTypes[src.Type]++
		if src.CredibilityScore != nil {
			sum += *src.CredibilityScore
			scored++
		}
	}
	if scored > 0 {
		stats.AverageCredibility = sum / float64(scored)
	}
	return stats, nil
}
