package services

import (
	"math"
	"sort"
	"time"

	"github.com/adaeze/reposcout/internal/domain/entities"
)

const topListSize = 10

// Filter keys that describe result presentation rather than the search
// itself; they are excluded from the topFilters ranking.
var reservedFilterKeys = map[string]bool{
	"sort":  true,
	"order": true,
}

// computeSearchStats aggregates a snapshot of events into a statistics
// payload. It never mutates its input and always returns a fully-formed
// payload, all-zero when the window is empty. A positive window excludes
// events older than now minus the window.
func computeSearchStats(events []*entities.SearchEvent, now time.Time, window time.Duration) entities.SearchStats {
	if window > 0 {
		cutoff := now.Add(-window)
		filtered := make([]*entities.SearchEvent, 0, len(events))
		for _, e := range events {
			if !e.Timestamp.Before(cutoff) {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	stats := entities.SearchStats{
		TopQueries:   []entities.QueryCount{},
		TopFilters:   []entities.FilterCount{},
		SearchTrends: emptyTrends(),
	}
	stats.TotalSearches = len(events)
	if stats.TotalSearches == 0 {
		return stats
	}

	var (
		cached, errored, limited int
		timedCount               int
		timedTotal               float64
		responseTimes            []float64
	)

	queryCounts := make(map[string]int)
	queryOrder := make([]string, 0, len(events))
	filterCounts := make(map[string]int)
	filterOrder := make([]string, 0)

	for _, e := range events {
		if e.Cached {
			cached++
		}
		if e.Error != "" {
			errored++
		}
		if e.RateLimited {
			limited++
		}
		if e.ResponseTimeMs > 0 {
			timedCount++
			timedTotal += e.ResponseTimeMs
			responseTimes = append(responseTimes, e.ResponseTimeMs)
		}

		q := e.NormalizedQuery()
		if _, seen := queryCounts[q]; !seen {
			queryOrder = append(queryOrder, q)
		}
		queryCounts[q]++

		for name, value := range e.Filters {
			if reservedFilterKeys[name] {
				continue
			}
			scalar, ok := entities.FilterScalar(value)
			if !ok {
				continue
			}
			pair := name + ":" + scalar
			if _, seen := filterCounts[pair]; !seen {
				filterOrder = append(filterOrder, pair)
			}
			filterCounts[pair]++
		}

		stats.SearchTrends[e.Timestamp.Hour()].Count++
	}

	stats.UniqueQueries = len(queryCounts)
	if timedCount > 0 {
		stats.AverageResponseTime = timedTotal / float64(timedCount)
	}
	total := float64(stats.TotalSearches)
	stats.CacheHitRate = round2(float64(cached) / total * 100)
	stats.ErrorRate = round2(float64(errored) / total * 100)
	stats.RateLimitRate = round2(float64(limited) / total * 100)

	stats.TopQueries = topQueryCounts(queryOrder, queryCounts, topListSize)
	stats.TopFilters = topFilterCounts(filterOrder, filterCounts, topListSize)
	stats.ResponseTimePercentiles = computePercentiles(responseTimes)

	return stats
}

// windowSummary computes the compact per-window view used by detailed stats
func windowSummary(events []*entities.SearchEvent, now time.Time, window time.Duration) entities.WindowSummary {
	stats := computeSearchStats(events, now, window)
	return entities.WindowSummary{
		TotalSearches:       stats.TotalSearches,
		ErrorRate:           stats.ErrorRate,
		AverageResponseTime: stats.AverageResponseTime,
	}
}

// zeroResultQueries ranks normalized queries that completed successfully but
// matched nothing, the leading signal for catalog and index gaps.
func zeroResultQueries(events []*entities.SearchEvent, limit int) []entities.QueryCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, e := range events {
		if e.ResultsCount != 0 || e.Error != "" || e.RateLimited {
			continue
		}
		q := e.NormalizedQuery()
		if _, seen := counts[q]; !seen {
			order = append(order, q)
		}
		counts[q]++
	}
	return topQueryCounts(order, counts, limit)
}

// topClients ranks client IDs by number of recorded attempts
func topClients(events []*entities.SearchEvent, limit int) []entities.ClientCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, e := range events {
		if e.ClientID == "" {
			continue
		}
		if _, seen := counts[e.ClientID]; !seen {
			order = append(order, e.ClientID)
		}
		counts[e.ClientID]++
	}

	out := make([]entities.ClientCount, 0, len(order))
	for _, id := range order {
		out = append(out, entities.ClientCount{ClientID: id, Count: counts[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// topQueryCounts ranks queries by frequency. The sort is stable over first
// occurrence order so that ties keep their encounter order.
func topQueryCounts(order []string, counts map[string]int, limit int) []entities.QueryCount {
	out := make([]entities.QueryCount, 0, len(order))
	for _, q := range order {
		out = append(out, entities.QueryCount{Query: q, Count: counts[q]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func topFilterCounts(order []string, counts map[string]int, limit int) []entities.FilterCount {
	out := make([]entities.FilterCount, 0, len(order))
	for _, pair := range order {
		out = append(out, entities.FilterCount{Filter: pair, Count: counts[pair]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// computePercentiles applies the nearest-rank rule
// index = ceil(p/100 * N) - 1, clamped to [0, N-1], over ascending times.
func computePercentiles(times []float64) entities.ResponseTimePercentiles {
	if len(times) == 0 {
		return entities.ResponseTimePercentiles{}
	}
	sorted := make([]float64, len(times))
	copy(sorted, times)
	sort.Float64s(sorted)

	return entities.ResponseTimePercentiles{
		P50: percentileValue(sorted, 50),
		P90: percentileValue(sorted, 90),
		P95: percentileValue(sorted, 95),
		P99: percentileValue(sorted, 99),
	}
}

func percentileValue(sorted []float64, percentile float64) float64 {
	idx := int(math.Ceil(percentile/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func emptyTrends() []entities.HourlyTrend {
	trends := make([]entities.HourlyTrend, 24)
	for h := range trends {
		trends[h].Hour = h
	}
	return trends
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
