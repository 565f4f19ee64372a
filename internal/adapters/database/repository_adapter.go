package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	"github.com/adaeze/reposcout/internal/infrastructure/clients/postgres"
	apperrors "github.com/adaeze/reposcout/pkg/errors"
)

const repositoriesTable = "repositories"

var repositoryColumns = []interface{}{
	"id", "full_name", "owner", "name", "description", "language",
	"topics", "stars", "forks", "open_issues", "url", "is_archived",
	"pushed_at", "created_at", "updated_at",
}

// RepositoryAdapter implements the RepositoryStore interface
type RepositoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRepositoryAdapter creates a new repository catalog adapter
func NewRepositoryAdapter(client *postgres.Client) repositories.RepositoryStore {
	return &RepositoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert creates or updates a repository record
func (a *RepositoryAdapter) Upsert(ctx context.Context, repo *entities.Repository) error {
	record := goqu.Record{
		"id":          repo.ID,
		"full_name":   repo.FullName,
		"owner":       repo.Owner,
		"name":        repo.Name,
		"description": repo.Description,
		"language":    repo.Language,
		"topics":      pq.Array(repo.Topics),
		"stars":       repo.Stars,
		"forks":       repo.Forks,
		"open_issues": repo.OpenIssues,
		"url":         repo.URL,
		"is_archived": repo.IsArchived,
		"pushed_at":   repo.PushedAt,
		"created_at":  repo.CreatedAt,
		"updated_at":  repo.UpdatedAt,
	}

	query, args, err := a.db.Insert(repositoriesTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("id", record)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert repository", err)
	}

	return nil
}

// GetByID retrieves a repository by ID
func (a *RepositoryAdapter) GetByID(ctx context.Context, id string) (*entities.Repository, error) {
	query, args, err := a.db.Select(repositoryColumns...).
		From(repositoriesTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	repo, err := scanRepository(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("repository with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get repository", err)
	}

	return repo, nil
}

// List retrieves repositories matching the filter
func (a *RepositoryAdapter) List(ctx context.Context, filter repositories.RepositoryFilter) ([]*entities.Repository, error) {
	ds := a.db.Select(repositoryColumns...).
		From(repositoriesTable).
		Order(goqu.I("stars").Desc())

	if filter.Language != "" {
		ds = ds.Where(goqu.Ex{"language": filter.Language})
	}
	if filter.MinStars > 0 {
		ds = ds.Where(goqu.C("stars").Gte(filter.MinStars))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list repositories", err)
	}
	defer rows.Close()

	repos := []*entities.Repository{}
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan repository", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate repositories", err)
	}

	return repos, nil
}

// Count returns the number of catalogued repositories
func (a *RepositoryAdapter) Count(ctx context.Context) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From(repositoriesTable).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count repositories", err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRepository(row rowScanner) (*entities.Repository, error) {
	repo := &entities.Repository{}
	var description, language sql.NullString
	var topics pq.StringArray

	err := row.Scan(
		&repo.ID,
		&repo.FullName,
		&repo.Owner,
		&repo.Name,
		&description,
		&language,
		&topics,
		&repo.Stars,
		&repo.Forks,
		&repo.OpenIssues,
		&repo.URL,
		&repo.IsArchived,
		&repo.PushedAt,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	repo.Description = description.String
	repo.Language = language.String
	repo.Topics = topics

	return repo, nil
}
