package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter tracks per-client request rates and daily upload volume in
// two tiers: a per-minute request cap and a daily data quota.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	maxDataPerDay     int64

	clients map[string]*clientUsage
}

// clientUsage tracks one client's recent activity.
type clientUsage struct {
	requestsLastMinute int
	dataToday          int64
	lastRequestTime    time.Time
	dayStartTime       time.Time
}

// NewRateLimiter creates a limiter. A zero limit disables that check.
func NewRateLimiter(requestsPerMinute int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxDataPerDay:     maxDataPerDay,
		clients:           make(map[string]*clientUsage),
	}
}

// Check reports whether a request of dataSize bytes from clientID is
// allowed, updating counters when it is.
func (rl *RateLimiter) Check(clientID string, dataSize int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	usage, ok := rl.clients[clientID]
	if !ok {
		usage = &clientUsage{lastRequestTime: now, dayStartTime: now}
		rl.clients[clientID] = usage
	}

	if now.YearDay() != usage.dayStartTime.YearDay() || now.Year() != usage.dayStartTime.Year() {
		usage.dataToday = 0
		usage.dayStartTime = now
	}
	if now.Sub(usage.lastRequestTime) >= time.Minute {
		usage.requestsLastMinute = 0
	}

	if rl.requestsPerMinute > 0 && usage.requestsLastMinute >= rl.requestsPerMinute {
		return &RateLimitError{
			Type:       "minute",
			Limit:      int64(rl.requestsPerMinute),
			RetryAfter: time.Minute - now.Sub(usage.lastRequestTime),
		}
	}
	if rl.maxDataPerDay > 0 && usage.dataToday+dataSize > rl.maxDataPerDay {
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		return &RateLimitError{
			Type:       "data",
			Limit:      rl.maxDataPerDay,
			RetryAfter: midnight.Sub(now),
		}
	}

	usage.requestsLastMinute++
	usage.dataToday += dataSize
	usage.lastRequestTime = now
	return nil
}

// RateLimitError reports an exceeded limit.
type RateLimitError struct {
	Type       string // "minute" or "data"
	Limit      int64
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}
