package entities

import "time"

// SearchStats is the aggregate statistics payload served to the dashboard.
// Rates are percentages in [0, 100] rounded to two decimals. SearchTrends
// always holds 24 buckets, hour 0 through 23.
type SearchStats struct {
	TotalSearches           int                     `json:"totalSearches"`
	UniqueQueries           int                     `json:"uniqueQueries"`
	AverageResponseTime     float64                 `json:"averageResponseTime"`
	CacheHitRate            float64                 `json:"cacheHitRate"`
	ErrorRate               float64                 `json:"errorRate"`
	RateLimitRate           float64                 `json:"rateLimitRate"`
	TopQueries              []QueryCount            `json:"topQueries"`
	TopFilters              []FilterCount           `json:"topFilters"`
	SearchTrends            []HourlyTrend           `json:"searchTrends"`
	ResponseTimePercentiles ResponseTimePercentiles `json:"responseTimePercentiles"`
}

// QueryCount is one entry of a query frequency ranking.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// FilterCount is one entry of a "name:value" filter-pair ranking.
type FilterCount struct {
	Filter string `json:"filter"`
	Count  int    `json:"count"`
}

// HourlyTrend is the event count for one hour-of-day bucket.
type HourlyTrend struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// ResponseTimePercentiles holds the latency percentile ladder in ms.
type ResponseTimePercentiles struct {
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// WindowSummary is a compact view of activity inside one time window.
type WindowSummary struct {
	TotalSearches       int     `json:"totalSearches"`
	ErrorRate           float64 `json:"errorRate"`
	AverageResponseTime float64 `json:"averageResponseTime"`
}

// ClientCount is one entry of a per-client request ranking.
type ClientCount struct {
	ClientID string `json:"clientId"`
	Count    int    `json:"count"`
}

// DetailedSearchStats extends SearchStats with breakdowns the dashboard asks
// for explicitly.
type DetailedSearchStats struct {
	SearchStats
	RetainedEvents    int           `json:"retainedEvents"`
	OldestEvent       *time.Time    `json:"oldestEvent,omitempty"`
	LastHour          WindowSummary `json:"lastHour"`
	Last24Hours       WindowSummary `json:"last24Hours"`
	ZeroResultQueries []QueryCount  `json:"zeroResultQueries"`
	TopClients        []ClientCount `json:"topClients"`
}
