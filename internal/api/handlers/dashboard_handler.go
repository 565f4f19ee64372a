package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adaeze/reposcout/internal/application/services"
	"github.com/adaeze/reposcout/internal/domain/providers"
)

const dashboardStatsWindow = 24 * time.Hour

// DashboardHandler serves the operational dashboard: telemetry statistics
// merged with rate limiter and cache snapshots, plus forwarded rate limiter
// management operations.
type DashboardHandler struct {
	analytics *services.SearchAnalyticsService
	limiter   providers.RateLimiter
	cache     providers.CacheProvider
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	analytics *services.SearchAnalyticsService,
	limiter providers.RateLimiter,
	cache providers.CacheProvider,
) *DashboardHandler {
	return &DashboardHandler{
		analytics: analytics,
		limiter:   limiter,
		cache:     cache,
	}
}

// GetStats handles GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"search": h.analytics.GetStats(dashboardStatsWindow),
	}

	if h.limiter != nil {
		payload["rateLimiter"] = h.limiter.Stats()
	}
	if h.cache != nil {
		stats, err := h.cache.Stats(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("failed to read cache stats for dashboard")
		} else {
			payload["cache"] = stats
		}
	}

	respondWithJSON(w, http.StatusOK, payload)
}

// GetDetailedStats handles GET /api/dashboard/stats/detailed
func (h *DashboardHandler) GetDetailedStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.analytics.GetDetailedStats())
}

// GetRecentSearches handles GET /api/dashboard/searches/recent
func (h *DashboardHandler) GetRecentSearches(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	searches := h.analytics.GetRecentSearches(limit)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"searches": searches,
		"count":    len(searches),
	})
}

// GetSearchHistory handles GET /api/dashboard/searches/history
func (h *DashboardHandler) GetSearchHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 0)
	searches := h.analytics.GetSearchHistory(query, limit)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":    query,
		"searches": searches,
		"count":    len(searches),
	})
}

// GetClientInfo handles GET /api/dashboard/clients/{id}
func (h *DashboardHandler) GetClientInfo(w http.ResponseWriter, r *http.Request) {
	if h.limiter == nil {
		respondWithError(w, http.StatusServiceUnavailable, "rate limiter is not configured")
		return
	}

	id := r.PathValue("id")
	info, ok := h.limiter.ClientInfo(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "client not found")
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

// ResetClient handles POST /api/dashboard/clients/{id}/reset
func (h *DashboardHandler) ResetClient(w http.ResponseWriter, r *http.Request) {
	if h.limiter == nil {
		respondWithError(w, http.StatusServiceUnavailable, "rate limiter is not configured")
		return
	}

	id := r.PathValue("id")
	h.limiter.ResetClient(id)
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":   "reset",
		"clientId": id,
	})
}

type increaseLimitRequest struct {
	Limit int `json:"limit"`
}

// IncreaseLimit handles POST /api/dashboard/clients/{id}/limit
func (h *DashboardHandler) IncreaseLimit(w http.ResponseWriter, r *http.Request) {
	if h.limiter == nil {
		respondWithError(w, http.StatusServiceUnavailable, "rate limiter is not configured")
		return
	}

	var payload increaseLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.Limit <= 0 {
		respondWithError(w, http.StatusBadRequest, "limit must be positive")
		return
	}

	id := r.PathValue("id")
	h.limiter.IncreaseLimit(id, payload.Limit)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "updated",
		"clientId": id,
		"limit":    payload.Limit,
	})
}
