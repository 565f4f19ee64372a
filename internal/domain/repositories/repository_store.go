package repositories

import (
	"context"

	"github.com/adaeze/reposcout/internal/domain/entities"
)

// RepositoryFilter narrows catalog listings
type RepositoryFilter struct {
	Language string
	MinStars int
	Limit    int
	Offset   int
}

// RepositoryStore defines the interface for the repository catalog
type RepositoryStore interface {
	// Upsert creates or updates a repository record
	Upsert(ctx context.Context, repo *entities.Repository) error

	// GetByID retrieves a repository by ID
	GetByID(ctx context.Context, id string) (*entities.Repository, error)

	// List retrieves repositories matching the filter
	List(ctx context.Context, filter RepositoryFilter) ([]*entities.Repository, error)

	// Count returns the number of catalogued repositories
	Count(ctx context.Context) (int, error)
}
