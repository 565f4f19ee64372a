package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/adaeze/reposcout/internal/domain/entities"
	"github.com/adaeze/reposcout/pkg/config"
)

const (
	defaultMaxEvents     = 10000
	defaultRetention     = 7 * 24 * time.Hour
	defaultSweepInterval = time.Hour

	defaultRecentLimit  = 50
	defaultHistoryLimit = 10
)

// SearchAnalyticsService is the in-process search-telemetry engine. It keeps
// a bounded rolling window of search events and serves aggregate statistics
// to the dashboard. One instance is constructed at startup and injected into
// the search pipeline and the dashboard handler; Close stops its background
// sweep.
type SearchAnalyticsService struct {
	mu     sync.Mutex
	events []*entities.SearchEvent

	maxEvents int
	retention time.Duration

	// now is the engine clock; tests override it.
	now func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// TrackParams carries the caller-supplied fields of one completed search.
// ID and timestamp are assigned by the engine.
type TrackParams struct {
	Query          string
	Filters        map[string]any
	ResultsCount   int
	ResponseTimeMs float64
	Cached         bool
	ClientID       string
}

// NewSearchAnalyticsService creates the engine and starts its periodic age
// sweep. Non-positive config values fall back to defaults.
func NewSearchAnalyticsService(cfg config.TelemetryConfig) *SearchAnalyticsService {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	s := &SearchAnalyticsService{
		events:    make([]*entities.SearchEvent, 0, 256),
		maxEvents: maxEvents,
		retention: retention,
		now:       time.Now,
		done:      make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweepLoop(interval)

	return s
}

// TrackSearch records a completed search attempt. It never fails and never
// blocks beyond an in-memory append; telemetry must not surface errors to the
// request path.
func (s *SearchAnalyticsService) TrackSearch(p TrackParams) {
	if p.ResultsCount < 0 {
		p.ResultsCount = 0
	}
	if p.ResponseTimeMs < 0 {
		p.ResponseTimeMs = 0
	}
	s.record(&entities.SearchEvent{
		Query:          p.Query,
		Filters:        p.Filters,
		ResultsCount:   p.ResultsCount,
		ResponseTimeMs: p.ResponseTimeMs,
		Cached:         p.Cached,
		ClientID:       p.ClientID,
	})
}

// TrackError records a search attempt that failed upstream
func (s *SearchAnalyticsService) TrackError(query string, filters map[string]any, errMsg, clientID string) {
	s.record(&entities.SearchEvent{
		Query:    query,
		Filters:  filters,
		ClientID: clientID,
		Error:    errMsg,
	})
}

// TrackRateLimit records a search attempt rejected before a search ran
func (s *SearchAnalyticsService) TrackRateLimit(query string, filters map[string]any, clientID string) {
	s.record(&entities.SearchEvent{
		Query:       query,
		Filters:     filters,
		ClientID:    clientID,
		RateLimited: true,
	})
}

// record assigns identity and timestamp under the lock so that insertion
// order and timestamp order agree, then appends and enforces the count cap.
func (s *SearchAnalyticsService) record(e *entities.SearchEvent) {
	e.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	e.Timestamp = s.now()
	s.events = append(s.events, e)

	if over := len(s.events) - s.maxEvents; over > 0 {
		for i := 0; i < over; i++ {
			s.events[i] = nil
		}
		s.events = s.events[over:]
	}
}

// Sweep removes every event at or beyond the retention horizon relative to
// now. It preserves the order of the remainder, is idempotent, and is
// exported so tests and operators can trigger it directly. Returns the number
// of events removed.
func (s *SearchAnalyticsService) Sweep(now time.Time) int {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Timestamps are non-decreasing, so the survivors are a suffix.
	idx := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Timestamp.After(cutoff)
	})
	if idx == 0 {
		return 0
	}

	kept := make([]*entities.SearchEvent, len(s.events)-idx)
	copy(kept, s.events[idx:])
	s.events = kept
	return idx
}

// GetStats computes aggregate statistics over the retained events. A positive
// timeRange narrows the aggregation to events no older than that; zero or
// negative means all retained events.
func (s *SearchAnalyticsService) GetStats(timeRange time.Duration) entities.SearchStats {
	if timeRange < 0 {
		timeRange = 0
	}
	return computeSearchStats(s.snapshot(), s.now(), timeRange)
}

// GetDetailedStats returns the full statistics payload plus richer breakdowns
// computed from the same snapshot.
func (s *SearchAnalyticsService) GetDetailedStats() entities.DetailedSearchStats {
	events := s.snapshot()
	now := s.now()

	detailed := entities.DetailedSearchStats{
		SearchStats:       computeSearchStats(events, now, 0),
		RetainedEvents:    len(events),
		LastHour:          windowSummary(events, now, time.Hour),
		Last24Hours:       windowSummary(events, now, 24*time.Hour),
		ZeroResultQueries: zeroResultQueries(events, topListSize),
		TopClients:        topClients(events, topListSize),
	}
	if len(events) > 0 {
		oldest := events[0].Timestamp
		detailed.OldestEvent = &oldest
	}
	return detailed
}

// GetRecentSearches returns the last limit events, most recent first. A
// non-positive limit falls back to the default of 50.
func (s *SearchAnalyticsService) GetRecentSearches(limit int) []entities.SearchEvent {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	events := s.snapshot()
	if len(events) > limit {
		events = events[len(events)-limit:]
	}

	out := make([]entities.SearchEvent, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i].Clone())
	}
	return out
}

// GetSearchHistory returns the most recent events whose normalized query
// contains the normalized needle as a substring. A non-positive limit falls
// back to the default of 10.
func (s *SearchAnalyticsService) GetSearchHistory(query string, limit int) []entities.SearchEvent {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	needle := entities.NormalizeQuery(query)

	events := s.snapshot()
	out := make([]entities.SearchEvent, 0, limit)
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.Contains(events[i].NormalizedQuery(), needle) {
			out = append(out, events[i].Clone())
		}
	}
	return out
}

// Close stops the background sweep. Idempotent and safe to call from process
// teardown paths that may run more than once.
func (s *SearchAnalyticsService) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

// snapshot returns a point-in-time copy of the buffer contents. Events are
// immutable after ingestion, so copying the slice of pointers is enough for
// lock-free aggregation.
func (s *SearchAnalyticsService) snapshot() []*entities.SearchEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entities.SearchEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *SearchAnalyticsService) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if removed := s.Sweep(s.now()); removed > 0 {
				log.Debug().Int("removed", removed).Msg("search telemetry sweep evicted expired events")
			}
		}
	}
}
