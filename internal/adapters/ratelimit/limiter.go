package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/adaeze/reposcout/internal/domain/providers"
)

// Limiter is an in-memory per-client fixed-window rate limiter. Windows reset
// lazily on the first request after expiry; idle clients age out of the
// active count after one full window.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientState

	defaultLimit int
	window       time.Duration

	totalAllowed int64
	totalBlocked int64

	now func() time.Time
}

type clientState struct {
	count    int
	limit    int
	resetAt  time.Time
	lastSeen time.Time
	blocked  int64
}

var _ providers.RateLimiter = (*Limiter)(nil)

// NewLimiter creates a limiter allowing requestsPerWindow requests per client
// per window
func NewLimiter(requestsPerWindow int, window time.Duration) *Limiter {
	if requestsPerWindow <= 0 {
		requestsPerWindow = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		clients:      make(map[string]*clientState),
		defaultLimit: requestsPerWindow,
		window:       window,
		now:          time.Now,
	}
}

// Allow reports whether clientID may issue another request now
func (l *Limiter) Allow(clientID string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.clients[clientID]
	if !ok {
		state = &clientState{limit: l.defaultLimit, resetAt: now.Add(l.window)}
		l.clients[clientID] = state
	}
	state.lastSeen = now

	if now.After(state.resetAt) {
		state.count = 0
		state.resetAt = now.Add(l.window)
	}

	if state.count >= state.limit {
		state.blocked++
		l.totalBlocked++
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = l.window
		}
		return false, retryAfter
	}

	state.count++
	l.totalAllowed++
	return true, 0
}

// Stats reports the limiter snapshot merged into the dashboard payload
func (l *Limiter) Stats() providers.RateLimiterStats {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	active := 0
	for id, state := range l.clients {
		if now.Sub(state.lastSeen) > l.window {
			delete(l.clients, id)
			continue
		}
		active++
	}

	total := l.totalAllowed + l.totalBlocked
	blockRate := 0.0
	if total > 0 {
		blockRate = math.Round(float64(l.totalBlocked)/float64(total)*10000) / 100
	}

	return providers.RateLimiterStats{
		ActiveClients: active,
		TotalBlocked:  l.totalBlocked,
		BlockRate:     blockRate,
	}
}

// ClientInfo reports the state of one client, if known
func (l *Limiter) ClientInfo(clientID string) (providers.ClientInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.clients[clientID]
	if !ok {
		return providers.ClientInfo{}, false
	}

	remaining := state.limit - state.count
	if remaining < 0 {
		remaining = 0
	}
	return providers.ClientInfo{
		ClientID:     clientID,
		Limit:        state.limit,
		Remaining:    remaining,
		ResetAt:      state.resetAt,
		LastSeen:     state.lastSeen,
		TotalBlocked: state.blocked,
	}, true
}

// ResetClient clears a client's window, unblocking it immediately
func (l *Limiter) ResetClient(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state, ok := l.clients[clientID]; ok {
		state.count = 0
		state.resetAt = l.now().Add(l.window)
	}
}

// IncreaseLimit raises a client's per-window budget. Limits below the default
// are ignored.
func (l *Limiter) IncreaseLimit(clientID string, limit int) {
	if limit < l.defaultLimit {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.clients[clientID]
	if !ok {
		state = &clientState{limit: l.defaultLimit, resetAt: l.now().Add(l.window)}
		l.clients[clientID] = state
	}
	state.limit = limit
}
