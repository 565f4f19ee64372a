package routes

import (
	"net/http"

	"github.com/adaeze/reposcout/internal/api/handlers"
	"github.com/adaeze/reposcout/internal/api/middleware"
	"github.com/adaeze/reposcout/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler    *handlers.SearchHandler
	dashboardHandler *handlers.DashboardHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	dashboardHandler *handlers.DashboardHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		searchHandler:    searchHandler,
		dashboardHandler: dashboardHandler,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Search endpoints
	r.mux.HandleFunc("GET /api/search/repositories", r.searchHandler.SearchRepositories)

	// Dashboard endpoints
	r.mux.HandleFunc("GET /api/dashboard/stats", r.dashboardHandler.GetStats)
	r.mux.HandleFunc("GET /api/dashboard/stats/detailed", r.dashboardHandler.GetDetailedStats)
	r.mux.HandleFunc("GET /api/dashboard/searches/recent", r.dashboardHandler.GetRecentSearches)
	r.mux.HandleFunc("GET /api/dashboard/searches/history", r.dashboardHandler.GetSearchHistory)
	r.mux.HandleFunc("GET /api/dashboard/clients/{id}", r.dashboardHandler.GetClientInfo)
	r.mux.HandleFunc("POST /api/dashboard/clients/{id}/reset", r.dashboardHandler.ResetClient)
	r.mux.HandleFunc("POST /api/dashboard/clients/{id}/limit", r.dashboardHandler.IncreaseLimit)

	// Apply middleware, outermost first
	var handler http.Handler = r.mux
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}
	handler = middleware.CacheControl(handler)
	handler = middleware.Compression(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
