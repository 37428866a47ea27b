package models

import "github.com/openresearch/research-agent/internal/api"

// Source statuses.
const (
	SourceActive   = "active"
	SourceInactive = "inactive"
)

// Source is an entry in the source registry, registered independently
// of any research session.
type Source struct {
	SourceID         string   `json:"source_id"`
	Title            string   `json:"title"`
	URL              string   `json:"url"`
	Type             string   `json:"type"`
	Description      string   `json:"description,omitempty"`
	CredibilityScore *float64 `json:"credibility_score,omitempty"`
	LastAccessed     string   `json:"last_accessed,omitempty"`
	Status           string   `json:"status"`
}

// Validate checks required fields and fills the default status.
func (s *Source) Validate() error {
	if s.SourceID == "" {
		return api.Validationf("source_id is required")
	}
	if s.Title == "" {
		return api.Validationf("title is required")
	}
	if s.URL == "" {
		return api.Validationf("url is required")
	}
	if s.Type == "" {
		return api.Validationf("type is required")
	}
	if s.CredibilityScore != nil && (*s.CredibilityScore < 0 || *s.CredibilityScore > 1) {
		return api.Validationf("credibility_score must be between 0.0 and 1.0")
	}
	if s.Status == "" {
		s.Status = SourceActive
	}
	return nil
}

// Clone returns a copy safe to hand to callers.
func (s *Source) Clone() *Source {
	cp := *s
	if s.CredibilityScore != nil {
		v := *s.CredibilityScore
		cp.CredibilityScore = &v
	}
	return &cp
}

// SourceStats summarizes the source registry.
type SourceStats struct {
	TotalSources       int            `json:"total_sources"`
	ActiveSources      int            `json:"active_sources"`
	SourceTypes        map[string]int `json:"source_types"`
	AverageCredibility float64        `json:"average_credibility"`
}
