package repositories

import (
	"context"

	"github.com/adaeze/reposcout/internal/domain/entities"
)

// SearchParams describes one repository search
type SearchParams struct {
	Query    string
	Language string
	MinStars int
	Sort     string
	Order    string
	Limit    int
	Offset   int
}

// RepositoryIndex defines the interface for the full-text repository index
type RepositoryIndex interface {
	// InitSchema ensures the index collection exists
	InitSchema(ctx context.Context) error

	// Index upserts a repository document
	Index(ctx context.Context, repo *entities.Repository) error

	// Delete removes a repository from the index
	Delete(ctx context.Context, id string) error

	// Search queries the index
	Search(ctx context.Context, params SearchParams) ([]*entities.Repository, int, error)
}
