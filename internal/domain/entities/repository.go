package entities

import "time"

// Repository represents one searchable repository
type Repository struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Topics      []string  `json:"topics,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	OpenIssues  int       `json:"open_issues"`
	URL         string    `json:"url"`
	IsArchived  bool      `json:"is_archived"`
	PushedAt    time.Time `json:"pushed_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RepositorySearchResult is the payload returned by the search pipeline
type RepositorySearchResult struct {
	Repositories []*Repository `json:"repositories"`
	TotalCount   int           `json:"total_count"`
	Cached       bool          `json:"cached"`
	Source       string        `json:"source"`
}
