package entities

import (
	"strconv"
	"strings"
	"time"
)

// SearchEvent records a single attempt to satisfy a repository search. The
// telemetry engine assigns ID and Timestamp at ingestion; callers supply the
// rest. ResponseTimeMs of 0 means "not measured" (error and rate-limited
// paths) and is excluded from latency statistics.
type SearchEvent struct {
	ID             string         `json:"id"`
	Query          string         `json:"query"`
	Filters        map[string]any `json:"filters,omitempty"`
	ResultsCount   int            `json:"results_count"`
	ResponseTimeMs float64        `json:"response_time_ms"`
	Cached         bool           `json:"cached"`
	ClientID       string         `json:"client_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Error          string         `json:"error,omitempty"`
	RateLimited    bool           `json:"rate_limited,omitempty"`
}

// NormalizedQuery returns the query lowercased with surrounding whitespace
// removed, the form used for dedup, ranking and history matching.
func (e *SearchEvent) NormalizedQuery() string {
	return NormalizeQuery(e.Query)
}

// Clone returns a copy of the event with its own filters map, safe for the
// caller to retain.
func (e *SearchEvent) Clone() SearchEvent {
	out := *e
	if e.Filters != nil {
		out.Filters = make(map[string]any, len(e.Filters))
		for k, v := range e.Filters {
			out.Filters[k] = v
		}
	}
	return out
}

// NormalizeQuery lowercases and trims a raw query string.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// FilterScalar renders a filter value as a string if it is a non-falsy
// scalar (string, bool, integer or float). Empty strings, false, numeric
// zero and non-scalar values are rejected.
func FilterScalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "", false
		}
		return val, true
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case int:
		if val == 0 {
			return "", false
		}
		return strconv.Itoa(val), true
	case int32:
		if val == 0 {
			return "", false
		}
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatInt(val, 10), true
	case float32:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		if val == 0 {
			return "", false
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}
