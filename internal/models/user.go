package models

import (
	"net/mail"
	"unicode/utf8"

	"github.com/openresearch/research-agent/internal/api"
)

// User is an entry in the user registry.
type User struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"full_name,omitempty"`
	IsActive      bool   `json:"is_active"`
	ResearchCount int    `json:"research_count"`
	CreatedAt     string `json:"created_at,omitempty"`
	LastLogin     string `json:"last_login,omitempty"`
}

// UserPayload is the JSON body for creating or updating a user.
// is_active defaults to true when omitted.
type UserPayload struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	IsActive      *bool  `json:"is_active"`
	ResearchCount int    `json:"research_count"`
	CreatedAt     string `json:"created_at"`
	LastLogin     string `json:"last_login"`
}

// Validate checks field bounds and returns the normalized user record.
func (p *UserPayload) Validate() (*User, error) {
	if p.UserID == "" {
		return nil, api.Validationf("user_id is required")
	}
	if n := utf8.RuneCountInString(p.Username); n < 3 || n > 50 {
		return nil, api.Validationf("username must be between 3 and 50 characters")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return nil, api.Validationf("email is not a valid address")
	}
	if p.ResearchCount < 0 {
		return nil, api.Validationf("research_count must not be negative")
	}
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return &User{
		UserID:        p.UserID,
		Username:      p.Username,
		Email:         p.Email,
		FullName:      p.FullName,
		IsActive:      active,
		ResearchCount: p.ResearchCount,
		CreatedAt:     p.CreatedAt,
		LastLogin:     p.LastLogin,
	}, nil
}

// UserStats summarizes the user registry.
type UserStats struct {
	TotalUsers            int     `json:"total_users"`
	ActiveUsers           int     `json:"active_users"`
	TotalResearchQueries  int     `json:"total_research_queries"`
	AverageQueriesPerUser float64 `json:"average_queries_per_user"`
}
