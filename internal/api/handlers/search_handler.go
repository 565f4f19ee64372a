package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	"github.com/adaeze/reposcout/internal/infrastructure/observability"
	apperrors "github.com/adaeze/reposcout/pkg/errors"
)

// RepositorySearcher defines the search pipeline operations used by the handler
type RepositorySearcher interface {
	Search(ctx context.Context, params repositories.SearchParams, clientID string) (*entities.RepositorySearchResult, error)
}

// SearchHandler handles repository search requests
type SearchHandler struct {
	service RepositorySearcher
	metrics *observability.Metrics
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service RepositorySearcher, metrics *observability.Metrics) *SearchHandler {
	return &SearchHandler{
		service: service,
		metrics: metrics,
	}
}

// SearchRepositories handles GET /api/search/repositories
func (h *SearchHandler) SearchRepositories(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	params := repositories.SearchParams{
		Query:    query,
		Language: strings.TrimSpace(r.URL.Query().Get("language")),
		MinStars: queryInt(r, "min_stars", 0),
		Sort:     r.URL.Query().Get("sort"),
		Order:    r.URL.Query().Get("order"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	}

	start := time.Now()
	result, err := h.service.Search(r.Context(), params, clientID(r))
	h.recordMetric(r.Context(), err, time.Since(start))

	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			switch appErr.Type {
			case apperrors.ErrorTypeRateLimited:
				respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			case apperrors.ErrorTypeValidation:
				respondWithError(w, http.StatusBadRequest, appErr.Message)
				return
			case apperrors.ErrorTypeExternal:
				respondWithError(w, http.StatusBadGateway, "repository search is temporarily unavailable")
				return
			}
		}
		respondWithError(w, http.StatusInternalServerError, "failed to search repositories")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *SearchHandler) recordMetric(ctx context.Context, err error, duration time.Duration) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(string(apperrors.TypeOf(err)))
	}
	observability.RecordSearchMetric(ctx, h.metrics, outcome, duration)
}
