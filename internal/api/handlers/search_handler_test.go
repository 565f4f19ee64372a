package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaeze/reposcout/internal/api/handlers"
	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	apperrors "github.com/adaeze/reposcout/pkg/errors"
)

type stubSearcher struct {
	result   *entities.RepositorySearchResult
	err      error
	params   repositories.SearchParams
	clientID string
}

func (s *stubSearcher) Search(ctx context.Context, params repositories.SearchParams, clientID string) (*entities.RepositorySearchResult, error) {
	s.params = params
	s.clientID = clientID
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestSearchRepositoriesRequiresQuery(t *testing.T) {
	handler := handlers.NewSearchHandler(&stubSearcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/search/repositories", nil)
	rec := httptest.NewRecorder()
	handler.SearchRepositories(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRepositoriesPassesParams(t *testing.T) {
	searcher := &stubSearcher{result: &entities.RepositorySearchResult{
		Repositories: []*entities.Repository{{ID: "repo-1", FullName: "rs/zerolog"}},
		TotalCount:   1,
		Source:       "index",
	}}
	handler := handlers.NewSearchHandler(searcher, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/search/repositories?q=logger&language=Go&min_stars=100&sort=stars&order=asc&limit=5&offset=10", nil)
	req.Header.Set("X-Client-ID", "client-a")
	rec := httptest.NewRecorder()
	handler.SearchRepositories(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logger", searcher.params.Query)
	assert.Equal(t, "Go", searcher.params.Language)
	assert.Equal(t, 100, searcher.params.MinStars)
	assert.Equal(t, "stars", searcher.params.Sort)
	assert.Equal(t, "asc", searcher.params.Order)
	assert.Equal(t, 5, searcher.params.Limit)
	assert.Equal(t, 10, searcher.params.Offset)
	assert.Equal(t, "client-a", searcher.clientID)

	var body entities.RepositorySearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TotalCount)
	assert.Equal(t, "rs/zerolog", body.Repositories[0].FullName)
}

func TestSearchRepositoriesErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"rate limited", apperrors.NewRateLimitedError("slow down"), http.StatusTooManyRequests},
		{"external failure", apperrors.NewExternalError("upstream broke", nil), http.StatusBadGateway},
		{"validation", apperrors.NewValidationError("bad input"), http.StatusBadRequest},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := handlers.NewSearchHandler(&stubSearcher{err: tc.err}, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/search/repositories?q=anything", nil)
			rec := httptest.NewRecorder()
			handler.SearchRepositories(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
