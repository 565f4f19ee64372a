package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaeze/reposcout/pkg/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestAnalytics(t *testing.T, cfg config.TelemetryConfig, now func() time.Time) *SearchAnalyticsService {
	t.Helper()
	s := NewSearchAnalyticsService(cfg)
	t.Cleanup(s.Close)
	if now != nil {
		s.now = now
	}
	return s
}

func TestTrackSearchAssignsIdentityAndKeepsOrder(t *testing.T) {
	s := newTestAnalytics(t, config.TelemetryConfig{}, nil)

	for i := 0; i < 5; i++ {
		s.TrackSearch(TrackParams{
			Query:          fmt.Sprintf("query-%d", i),
			ResultsCount:   i,
			ResponseTimeMs: 10,
			ClientID:       "client-a",
		})
	}

	recent := s.GetRecentSearches(5)
	require.Len(t, recent, 5)

	seen := make(map[string]bool)
	for i, event := range recent {
		// Most recent first, so index 0 is query-4
		assert.Equal(t, fmt.Sprintf("query-%d", 4-i), event.Query)
		assert.NotEmpty(t, event.ID)
		assert.False(t, seen[event.ID], "event IDs must be unique")
		seen[event.ID] = true
	}

	for i := 1; i < len(recent); i++ {
		// Reverse order, so each event is no newer than the previous
		assert.False(t, recent[i].Timestamp.After(recent[i-1].Timestamp))
	}
}

func TestBufferEvictsOldestBeyondCap(t *testing.T) {
	s := newTestAnalytics(t, config.TelemetryConfig{MaxEvents: 100}, nil)

	for i := 0; i < 107; i++ {
		s.TrackSearch(TrackParams{Query: fmt.Sprintf("q-%d", i)})
	}

	recent := s.GetRecentSearches(200)
	require.Len(t, recent, 100)
	assert.Equal(t, "q-106", recent[0].Query)
	assert.Equal(t, "q-7", recent[99].Query, "oldest seven events should have been evicted")
}

func TestTrackErrorAndRateLimitZeroMetrics(t *testing.T) {
	s := newTestAnalytics(t, config.TelemetryConfig{}, nil)

	s.TrackError("broken", map[string]any{"language": "go"}, "upstream exploded", "client-a")
	s.TrackRateLimit("busy", nil, "client-b")

	recent := s.GetRecentSearches(2)
	require.Len(t, recent, 2)

	limited := recent[0]
	assert.True(t, limited.RateLimited)
	assert.Zero(t, limited.ResultsCount)
	assert.Zero(t, limited.ResponseTimeMs)
	assert.False(t, limited.Cached)

	errored := recent[1]
	assert.Equal(t, "upstream exploded", errored.Error)
	assert.False(t, errored.RateLimited)
	assert.Zero(t, errored.ResponseTimeMs)
}

func TestSweepRemovesExpiredEvents(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := newTestAnalytics(t, config.TelemetryConfig{Retention: 7 * 24 * time.Hour}, clock.Now)

	s.TrackSearch(TrackParams{Query: "old-1"})
	s.TrackSearch(TrackParams{Query: "old-2"})

	clock.Advance(8 * 24 * time.Hour)
	s.TrackSearch(TrackParams{Query: "fresh"})

	removed := s.Sweep(clock.Now())
	assert.Equal(t, 2, removed)

	recent := s.GetRecentSearches(10)
	require.Len(t, recent, 1)
	assert.Equal(t, "fresh", recent[0].Query)

	// Idempotent with no new events
	assert.Zero(t, s.Sweep(clock.Now()))
	assert.Len(t, s.GetRecentSearches(10), 1)
}

func TestSweepRemovesEventExactlyAtHorizon(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := newTestAnalytics(t, config.TelemetryConfig{Retention: 7 * 24 * time.Hour}, clock.Now)

	s.TrackSearch(TrackParams{Query: "boundary"})

	clock.Advance(7 * 24 * time.Hour)
	assert.Equal(t, 1, s.Sweep(clock.Now()), "event aged exactly to the horizon is removed")
	assert.Empty(t, s.GetRecentSearches(10))
}

func TestGetRecentSearchesClampsLimit(t *testing.T) {
	s := newTestAnalytics(t, config.TelemetryConfig{}, nil)

	for i := 0; i < 60; i++ {
		s.TrackSearch(TrackParams{Query: fmt.Sprintf("q-%d", i)})
	}

	assert.Len(t, s.GetRecentSearches(-3), 50, "negative limit falls back to the default")
	assert.Len(t, s.GetRecentSearches(0), 50)
	assert.Len(t, s.GetRecentSearches(10), 10)
}

func TestGetSearchHistoryMatchesNormalizedSubstring(t *testing.T) {
	s := newTestAnalytics(t, config.TelemetryConfig{}, nil)

	s.TrackSearch(TrackParams{Query: "Kubernetes operators"})
	s.TrackSearch(TrackParams{Query: "  KUBERNETES helm charts "})
	s.TrackSearch(TrackParams{Query: "terraform modules"})
	s.TrackSearch(TrackParams{Query: "kube-proxy internals"})

	matches := s.GetSearchHistory("kubernetes", 10)
	require.Len(t, matches, 2)
	assert.Equal(t, "  KUBERNETES helm charts ", matches[0].Query, "most recent match first")
	assert.Equal(t, "Kubernetes operators", matches[1].Query)

	capped := s.GetSearchHistory("e", 2)
	assert.Len(t, capped, 2, "results are capped at limit even when more match")

	assert.Len(t, s.GetSearchHistory("nothing-matches-this", 10), 0)
}

func TestGetSearchHistoryDefaultLimit(t *testing.T) {
	s := newTestAnalytics(t, config.TelemetryConfig{}, nil)

	for i := 0; i < 15; i++ {
		s.TrackSearch(TrackParams{Query: fmt.Sprintf("shared prefix %d", i)})
	}

	assert.Len(t, s.GetSearchHistory("shared", 0), 10)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := NewSearchAnalyticsService(config.TelemetryConfig{})
	s.Close()
	s.Close()
}

func TestReturnedEventsAreIndependentCopies(t *testing.T) {
	s := newTestAnalytics(t, config.TelemetryConfig{}, nil)

	s.TrackSearch(TrackParams{Query: "immutability", Filters: map[string]any{"language": "go"}})

	first := s.GetRecentSearches(1)
	require.Len(t, first, 1)
	first[0].Query = "mutated"
	first[0].Filters["language"] = "rust"

	second := s.GetRecentSearches(1)
	require.Len(t, second, 1)
	assert.Equal(t, "immutability", second[0].Query)
	assert.Equal(t, "go", second[0].Filters["language"])
}

func TestConcurrentIngestionAndReads(t *testing.T) {
	s := newTestAnalytics(t, config.TelemetryConfig{MaxEvents: 5000}, nil)

	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				s.TrackSearch(TrackParams{Query: fmt.Sprintf("w%d-q%d", w, i), ResponseTimeMs: 5})
				if i%50 == 0 {
					_ = s.GetStats(0)
					_ = s.GetRecentSearches(10)
				}
			}
		}(w)
	}
	wg.Wait()

	stats := s.GetStats(0)
	assert.Equal(t, writers*perWriter, stats.TotalSearches)
}
