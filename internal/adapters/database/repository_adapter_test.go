package database_test

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaeze/reposcout/internal/adapters/database"
	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	"github.com/adaeze/reposcout/internal/infrastructure/clients/postgres"
	apperrors "github.com/adaeze/reposcout/pkg/errors"
)

var repositoryRows = []string{
	"id", "full_name", "owner", "name", "description", "language",
	"topics", "stars", "forks", "open_issues", "url", "is_archived",
	"pushed_at", "created_at", "updated_at",
}

func newMockAdapter(t *testing.T) (repositories.RepositoryStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return database.NewRepositoryAdapter(postgres.NewClientWithDB(db)), mock
}

func sampleRow(id string) []driverValue {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []driverValue{
		id, "grafana/grafana", "grafana", "grafana", "Observability platform", "TypeScript",
		pq.StringArray{"monitoring", "metrics"}, 62000, 12000, 3500,
		"https://github.com/grafana/grafana", false, now, now, now,
	}
}

type driverValue = driver.Value

func sampleRepository(id string) *entities.Repository {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &entities.Repository{
		ID:         id,
		FullName:   "grafana/grafana",
		Owner:      "grafana",
		Name:       "grafana",
		Language:   "TypeScript",
		Topics:     []string{"monitoring", "metrics"},
		Stars:      62000,
		Forks:      12000,
		OpenIssues: 3500,
		URL:        "https://github.com/grafana/grafana",
		PushedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestRepositoryAdapterGetByID(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "repositories" WHERE`).
		WillReturnRows(sqlmock.NewRows(repositoryRows).AddRow(sampleRow("repo-1")...))

	repo, err := adapter.GetByID(context.Background(), "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "grafana/grafana", repo.FullName)
	assert.Equal(t, []string{"monitoring", "metrics"}, repo.Topics)
	assert.Equal(t, 62000, repo.Stars)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryAdapterGetByIDNotFound(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "repositories" WHERE`).
		WillReturnRows(sqlmock.NewRows(repositoryRows))

	_, err := adapter.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
}

func TestRepositoryAdapterList(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "repositories".+ORDER BY "stars" DESC`).
		WillReturnRows(sqlmock.NewRows(repositoryRows).
			AddRow(sampleRow("repo-1")...).
			AddRow(sampleRow("repo-2")...))

	repos, err := adapter.List(context.Background(), repositories.RepositoryFilter{
		Language: "TypeScript",
		MinStars: 1000,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Len(t, repos, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryAdapterUpsert(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectExec(`INSERT INTO "repositories".+ON CONFLICT \("id"\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Upsert(context.Background(), sampleRepository("repo-1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryAdapterCount(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "repositories"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := adapter.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
