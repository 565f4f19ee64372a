package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/internal/domain/providers"
	"github.com/adaeze/reposcout/internal/domain/repositories"
	"github.com/adaeze/reposcout/pkg/config"
	apperrors "github.com/adaeze/reposcout/pkg/errors"
)

type fakeIndex struct {
	repos  []*entities.Repository
	err    error
	calls  int
	params repositories.SearchParams
}

func (f *fakeIndex) InitSchema(ctx context.Context) error { return nil }

func (f *fakeIndex) Index(ctx context.Context, repo *entities.Repository) error { return nil }

func (f *fakeIndex) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeIndex) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Repository, int, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.repos, len(f.repos), nil
}

type fakeUpstream struct {
	repos []*entities.Repository
	err   error
	calls int
}

func (f *fakeUpstream) SearchRepositories(ctx context.Context, params repositories.SearchParams) ([]*entities.Repository, int, error) {
	f.calls++
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.repos, len(f.repos), nil
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("key not found: %s", key)
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeCache) Stats(ctx context.Context) (providers.CacheStats, error) {
	return providers.CacheStats{Size: int64(len(f.data))}, nil
}

type fakeLimiter struct {
	allow bool
}

func (f *fakeLimiter) Allow(clientID string) (bool, time.Duration) {
	if f.allow {
		return true, 0
	}
	return false, time.Minute
}

func (f *fakeLimiter) Stats() providers.RateLimiterStats { return providers.RateLimiterStats{} }

func (f *fakeLimiter) ClientInfo(clientID string) (providers.ClientInfo, bool) {
	return providers.ClientInfo{}, false
}

func (f *fakeLimiter) ResetClient(clientID string) {}

func (f *fakeLimiter) IncreaseLimit(clientID string, limit int) {}

func sampleRepos(n int) []*entities.Repository {
	repos := make([]*entities.Repository, 0, n)
	for i := 0; i < n; i++ {
		repos = append(repos, &entities.Repository{
			ID:       fmt.Sprintf("repo-%d", i),
			FullName: fmt.Sprintf("owner/repo-%d", i),
			Stars:    100 - i,
		})
	}
	return repos
}

func TestRepoSearchServiceRecordsSuccess(t *testing.T) {
	index := &fakeIndex{repos: sampleRepos(3)}
	analytics := newTestAnalytics(t, config.TelemetryConfig{}, nil)
	service := NewRepoSearchService(index, nil, nil, nil, analytics)

	result, err := service.Search(context.Background(), repositories.SearchParams{Query: "cli framework"}, "client-a")
	require.NoError(t, err)
	assert.Len(t, result.Repositories, 3)
	assert.Equal(t, "index", result.Source)
	assert.False(t, result.Cached)

	recent := analytics.GetRecentSearches(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "cli framework", recent[0].Query)
	assert.Equal(t, 3, recent[0].ResultsCount)
	assert.False(t, recent[0].Cached)
	assert.Empty(t, recent[0].Error)
}

func TestRepoSearchServiceRateLimited(t *testing.T) {
	index := &fakeIndex{repos: sampleRepos(1)}
	analytics := newTestAnalytics(t, config.TelemetryConfig{}, nil)
	service := NewRepoSearchService(index, nil, nil, &fakeLimiter{allow: false}, analytics)

	_, err := service.Search(context.Background(), repositories.SearchParams{Query: "blocked"}, "client-a")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeRateLimited, apperrors.TypeOf(err))
	assert.Zero(t, index.calls, "rejected requests never reach the index")

	recent := analytics.GetRecentSearches(1)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].RateLimited)
	assert.Equal(t, "blocked", recent[0].Query)
}

func TestRepoSearchServiceCacheHit(t *testing.T) {
	index := &fakeIndex{repos: sampleRepos(2)}
	cache := newFakeCache()
	analytics := newTestAnalytics(t, config.TelemetryConfig{}, nil)
	service := NewRepoSearchService(index, nil, cache, nil, analytics)

	params := repositories.SearchParams{Query: "terraform"}

	first, err := service.Search(context.Background(), params, "client-a")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := service.Search(context.Background(), params, "client-a")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Len(t, second.Repositories, 2)
	assert.Equal(t, 1, index.calls, "second search is served from cache")

	recent := analytics.GetRecentSearches(2)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Cached)
	assert.False(t, recent[1].Cached)
}

func TestRepoSearchServiceFallsBackToUpstream(t *testing.T) {
	index := &fakeIndex{err: errors.New("index down")}
	upstream := &fakeUpstream{repos: sampleRepos(1)}
	analytics := newTestAnalytics(t, config.TelemetryConfig{}, nil)
	service := NewRepoSearchService(index, upstream, nil, nil, analytics)

	result, err := service.Search(context.Background(), repositories.SearchParams{Query: "fallback"}, "client-a")
	require.NoError(t, err)
	assert.Equal(t, "upstream", result.Source)
	assert.Equal(t, 1, upstream.calls)
}

func TestRepoSearchServiceFallsBackOnEmptyIndex(t *testing.T) {
	index := &fakeIndex{}
	upstream := &fakeUpstream{repos: sampleRepos(2)}
	analytics := newTestAnalytics(t, config.TelemetryConfig{}, nil)
	service := NewRepoSearchService(index, upstream, nil, nil, analytics)

	result, err := service.Search(context.Background(), repositories.SearchParams{Query: "uncatalogued"}, "client-a")
	require.NoError(t, err)
	assert.Equal(t, "upstream", result.Source)
	assert.Len(t, result.Repositories, 2)
	assert.Equal(t, 1, index.calls)
}

func TestRepoSearchServiceRecordsError(t *testing.T) {
	index := &fakeIndex{err: errors.New("index down")}
	upstream := &fakeUpstream{err: errors.New("upstream down")}
	analytics := newTestAnalytics(t, config.TelemetryConfig{}, nil)
	service := NewRepoSearchService(index, upstream, nil, nil, analytics)

	_, err := service.Search(context.Background(), repositories.SearchParams{Query: "doomed"}, "client-a")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))

	recent := analytics.GetRecentSearches(1)
	require.Len(t, recent, 1)
	assert.NotEmpty(t, recent[0].Error)
	assert.Zero(t, recent[0].ResultsCount)
}

func TestRepoSearchServiceClampsParams(t *testing.T) {
	index := &fakeIndex{repos: sampleRepos(1)}
	analytics := newTestAnalytics(t, config.TelemetryConfig{}, nil)
	service := NewRepoSearchService(index, nil, nil, nil, analytics)

	_, err := service.Search(context.Background(), repositories.SearchParams{
		Query:    "clamped",
		Limit:    0,
		Offset:   -10,
		MinStars: -5,
	}, "client-a")
	require.NoError(t, err)
	assert.Equal(t, defaultSearchLimit, index.params.Limit)
	assert.Zero(t, index.params.Offset)
	assert.Zero(t, index.params.MinStars)

	_, err = service.Search(context.Background(), repositories.SearchParams{Query: "clamped", Limit: 5000}, "client-a")
	require.NoError(t, err)
	assert.Equal(t, maxSearchLimit, index.params.Limit)
}
