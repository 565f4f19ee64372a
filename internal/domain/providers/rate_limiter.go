package providers

import "time"

// RateLimiterStats is the rate limiter snapshot merged into the dashboard payload
type RateLimiterStats struct {
	ActiveClients int     `json:"activeClients"`
	TotalBlocked  int64   `json:"totalBlocked"`
	BlockRate     float64 `json:"blockRate"`
}

// ClientInfo describes one client's current rate limit state
type ClientInfo struct {
	ClientID     string    `json:"clientId"`
	Limit        int       `json:"limit"`
	Remaining    int       `json:"remaining"`
	ResetAt      time.Time `json:"resetAt"`
	LastSeen     time.Time `json:"lastSeen"`
	TotalBlocked int64     `json:"totalBlocked"`
}

// RateLimiter defines the admission control interface for search requests
type RateLimiter interface {
	// Allow reports whether the client may issue another request now. When
	// denied it also reports how long the client should wait before retrying.
	Allow(clientID string) (bool, time.Duration)

	// Stats reports the limiter's published snapshot
	Stats() RateLimiterStats

	// ClientInfo reports the state of a single client, if known
	ClientInfo(clientID string) (ClientInfo, bool)

	// ResetClient clears a client's window, unblocking it immediately
	ResetClient(clientID string)

	// IncreaseLimit raises a client's per-window budget
	IncreaseLimit(clientID string, limit int)
}
