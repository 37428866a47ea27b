package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/models"
)

// UserRegistry is the in-memory user registry. Usernames are unique
// across the registry, enforced through a secondary index.
type UserRegistry struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	usernames map[string]string // username -> user id
	order     []string
}

func NewUserRegistry() *UserRegistry {
	return &UserRegistry{
		users:     make(map[string]*models.User),
		usernames: make(map[string]string),
	}
}

func (r *UserRegistry) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.UserID]; ok {
		return fmt.Errorf("user %s: %w", u.UserID, api.ErrConflict)
	}
	if _, ok := r.usernames[u.Username]; ok {
		return fmt.Errorf("username %s: %w", u.Username, api.ErrConflict)
	}
	cp := *u
	r.users[u.UserID] = &cp
	r.usernames[u.Username] = u.UserID
	r.order = append(r.order, u.UserID)
	return nil
}

func (r *UserRegistry) Get(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, api.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

// Update replaces the record. Renaming onto a username held by another
// user fails with api.ErrConflict.
func (r *UserRegistry) Update(ctx context.Context, id string, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, api.ErrNotFound)
	}
	if owner, taken := r.usernames[u.Username]; taken && owner != id {
		return fmt.Errorf("username %s: %w", u.Username, api.ErrConflict)
	}
	if current.Username != u.Username {
		delete(r.usernames, current.Username)
		r.usernames[u.Username] = id
	}
	cp := *u
	cp.UserID = id
	r.users[id] = &cp
	return nil
}

func (r *UserRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, api.ErrNotFound)
	}
	delete(r.users, id)
	delete(r.usernames, u.Username)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// List filters by active flag (nil matches everything) and paginates in
// insertion order.
func (r *UserRegistry) List(ctx context.Context, isActive *bool, offset, limit int) ([]*models.User, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		u := r.users[id]
		if isActive != nil && u.IsActive != *isActive {
			continue
		}
		matched = append(matched, u)
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]*models.User, 0, end-offset)
	for _, u := range matched[offset:end] {
		cp := *u
		page = append(page, &cp)
	}
	return page, nil
}

// Stats aggregates totals and research-query counts.
func (r *UserRegistry) Stats(ctx context.Context) (*models.UserStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &models.UserStats{}
	for _, u := range r.users {
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		}
		stats.TotalResearchQueries += u.ResearchCount
	}
	if stats.TotalUsers > 0 {
		stats.AverageQueriesPerUser = float64(stats.TotalResearchQueries) / float64(stats.TotalUsers)
	}
	return stats, nil
}
