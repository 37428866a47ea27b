package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/openresearch/research-agent/internal/api"
)

// Status is the lifecycle state of a research session.
type Status string

const (
	StatusStarted    Status = "started"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// transitions is the legal state graph. Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusStarted:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Complexity levels accepted for a research query.
const (
	ComplexitySimple  = "simple"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

// SessionSource is a read-only copy of a source discovered during
// execution. Sessions never hold live links into the source registry.
type SessionSource struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Type           string  `json:"type"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Session is a single research request and its lifecycle record.
// Only Status and the terminal-result fields mutate after creation.
type Session struct {
	ID             string          `json:"session_id"`
	Query          string          `json:"query"`
	MaxSources     int             `json:"max_sources"`
	Complexity     string          `json:"complexity"`
	IncludeSources bool            `json:"include_sources"`
	Status         Status          `json:"status"`
	Summary        string          `json:"summary,omitempty"`
	Sources        []SessionSource `json:"sources,omitempty"`
	Confidence     *float64        `json:"confidence_score,omitempty"`
	ProcessingTime *float64        `json:"processing_time,omitempty"`
	Error          string          `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransitionTo advances the session status. An illegal transition is a
// programming error surfaced to the caller, never silently applied.
func (s *Session) TransitionTo(next Status) error {
	for _, allowed := range transitions[s.Status] {
		if next == allowed {
			s.Status = next
			return nil
		}
	}
	return fmt.Errorf("illegal session transition %s -> %s", s.Status, next)
}

// Clone returns a deep copy safe to hand to callers while the
// background task keeps mutating the original.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Sources != nil {
		cp.Sources = make([]SessionSource, len(s.Sources))
		copy(cp.Sources, s.Sources)
	}
	if s.Confidence != nil {
		v := *s.Confidence
		cp.Confidence = &v
	}
	if s.ProcessingTime != nil {
		v := *s.ProcessingTime
		cp.ProcessingTime = &v
	}
	return &cp
}

// StartRequest is the JSON body for POST /research/start.
// Optional fields are pointers so absence is distinguishable from the
// zero value when filling defaults.
type StartRequest struct {
	Query          string  `json:"query"`
	MaxSources     *int    `json:"max_sources"`
	Complexity     *string `json:"complexity"`
	IncludeSources *bool   `json:"include_sources"`
}

// Validate checks bounds and fills defaults (max_sources 10,
// complexity medium, include_sources true).
func (r *StartRequest) Validate() error {
	// Bounds count characters, not bytes.
	if n := utf8.RuneCountInString(r.Query); n < 1 || n > 1000 {
		return api.Validationf("query must be between 1 and 1000 characters")
	}
	if r.MaxSources == nil {
		v := 10
		r.MaxSources = &v
	} else if *r.MaxSources < 1 || *r.MaxSources > 50 {
		return api.Validationf("max_sources must be between 1 and 50")
	}
	if r.Complexity == nil {
		v := ComplexityMedium
		r.Complexity = &v
	} else {
		switch *r.Complexity {
		case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		default:
			return api.Validationf("complexity must be one of simple, medium, complex")
		}
	}
	if r.IncludeSources == nil {
		v := true
		r.IncludeSources = &v
	}
	return nil
}

// NewSession builds a started session from a validated request.
func NewSession(id string, r *StartRequest) *Session {
	return &Session{
		ID:             id,
		Query:          r.Query,
		MaxSources:     *r.MaxSources,
		Complexity:     *r.Complexity,
		IncludeSources: *r.IncludeSources,
		Status:         StatusStarted,
		CreatedAt:      time.Now().UTC(),
	}
}

// StartResponse is the JSON body returned by POST /research/start.
type StartResponse struct {
	SessionID     string `json:"session_id"`
	Status        Status `json:"status"`
	Query         string `json:"query"`
	Message       string `json:"message"`
	EstimatedTime int    `json:"estimated_time"`
}
