package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/domain/providers"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	apperrors "github.com/adaeze/reposcout/pkg/errors"
)

const (
	searchCacheTTLSeconds = 120
	defaultSearchLimit    = 30
	maxSearchLimit        = 100
)

// UpstreamSearcher is the fallback search backend used when the local index
// cannot serve a query.
type UpstreamSearcher interface {
	SearchRepositories(ctx context.Context, params repositories.SearchParams) ([]*entities.Repository, int, error)
}

// RepoSearchService executes repository searches: admission control first,
// then cache, then the local index with an upstream fallback. Every attempt,
// whatever its outcome, is reported to the telemetry engine.
type RepoSearchService struct {
	index     repositories.RepositoryIndex
	upstream  UpstreamSearcher
	cache     providers.CacheProvider
	limiter   providers.RateLimiter
	analytics *SearchAnalyticsService
}

// NewRepoSearchService creates a new search pipeline. Cache, limiter and
// upstream may be nil; the pipeline degrades to a plain index query.
func NewRepoSearchService(
	index repositories.RepositoryIndex,
	upstream UpstreamSearcher,
	cache providers.CacheProvider,
	limiter providers.RateLimiter,
	analytics *SearchAnalyticsService,
) *RepoSearchService {
	return &RepoSearchService{
		index:     index,
		upstream:  upstream,
		cache:     cache,
		limiter:   limiter,
		analytics: analytics,
	}
}

// Search runs one repository search for the given client
func (s *RepoSearchService) Search(ctx context.Context, params repositories.SearchParams, clientID string) (*entities.RepositorySearchResult, error) {
	params = clampSearchParams(params)
	filters := telemetryFilters(params)

	if s.limiter != nil {
		if allowed, _ := s.limiter.Allow(clientID); !allowed {
			s.analytics.TrackRateLimit(params.Query, filters, clientID)
			return nil, apperrors.NewRateLimitedError("rate limit exceeded")
		}
	}

	start := time.Now()

	if s.cache != nil {
		key := searchCacheKey(params)
		if data, err := s.cache.Get(ctx, key); err == nil {
			var result entities.RepositorySearchResult
			if err := json.Unmarshal(data, &result); err == nil {
				result.Cached = true
				s.analytics.TrackSearch(TrackParams{
					Query:          params.Query,
					Filters:        filters,
					ResultsCount:   len(result.Repositories),
					ResponseTimeMs: elapsedMs(start),
					Cached:         true,
					ClientID:       clientID,
				})
				return &result, nil
			}
		}
	}

	var (
		repos  []*entities.Repository
		total  int
		err    error
		source string
	)
	if s.index != nil {
		repos, total, err = s.index.Search(ctx, params)
		source = "index"
		if err != nil && s.upstream != nil {
			log.Warn().Err(err).Str("query", params.Query).Msg("index search failed, falling back to upstream")
			repos, total, err = s.upstream.SearchRepositories(ctx, params)
			source = "upstream"
		} else if err == nil && total == 0 && s.upstream != nil {
			// The index only holds catalogued repositories; a miss is worth
			// one upstream attempt before reporting zero results.
			if upRepos, upTotal, upErr := s.upstream.SearchRepositories(ctx, params); upErr == nil {
				repos, total = upRepos, upTotal
				source = "upstream"
			}
		}
	} else if s.upstream != nil {
		repos, total, err = s.upstream.SearchRepositories(ctx, params)
		source = "upstream"
	} else {
		err = fmt.Errorf("no search backend configured")
	}
	if err != nil {
		s.analytics.TrackError(params.Query, filters, err.Error(), clientID)
		return nil, apperrors.NewExternalError("repository search failed", err)
	}

	result := &entities.RepositorySearchResult{
		Repositories: repos,
		TotalCount:   total,
		Source:       source,
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, searchCacheKey(params), data, searchCacheTTLSeconds); err != nil {
				log.Debug().Err(err).Msg("failed to cache search result")
			}
		}
	}

	s.analytics.TrackSearch(TrackParams{
		Query:          params.Query,
		Filters:        filters,
		ResultsCount:   len(repos),
		ResponseTimeMs: elapsedMs(start),
		ClientID:       clientID,
	})

	return result, nil
}

func clampSearchParams(params repositories.SearchParams) repositories.SearchParams {
	if params.Limit <= 0 {
		params.Limit = defaultSearchLimit
	}
	if params.Limit > maxSearchLimit {
		params.Limit = maxSearchLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.MinStars < 0 {
		params.MinStars = 0
	}
	return params
}

// telemetryFilters renders the search parameters as the filter map recorded
// on events. Zero values stay in the map; the aggregator skips falsy values
// when ranking filters.
func telemetryFilters(params repositories.SearchParams) map[string]any {
	return map[string]any{
		"language":  params.Language,
		"min_stars": params.MinStars,
		"sort":      params.Sort,
		"order":     params.Order,
	}
}

func searchCacheKey(params repositories.SearchParams) string {
	raw := fmt.Sprintf("%s|%s|%d|%s|%s|%d|%d",
		entities.NormalizeQuery(params.Query),
		params.Language, params.MinStars, params.Sort, params.Order,
		params.Limit, params.Offset,
	)
	hash := sha256.Sum256([]byte(raw))
	return "search:repos:" + hex.EncodeToString(hash[:])
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
