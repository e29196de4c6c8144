package app

import (
	"sync"
	"time"

	"github.com/ghostline/relay/internal/domain"
)

// Budget caps one event type inside a trailing window.
type Budget struct {
	Max    int
	Window time.Duration
}

type rateKey struct {
	cid   domain.ConnID
	event string
}

// EventRateLimiter keeps a trailing-window timestamp queue per
// (connection, event type). Events without a configured budget pass freely.
// A rejection suppresses one event and nothing else; it never closes the
// connection.
type EventRateLimiter struct {
	mu      sync.Mutex
	budgets map[string]Budget
	history map[rateKey][]time.Time
	now     func() time.Time
}

func NewEventRateLimiter(budgets map[string]Budget) *EventRateLimiter {
	return &EventRateLimiter{
		budgets: budgets,
		history: make(map[rateKey][]time.Time),
		now:     time.Now,
	}
}

// Allow admits or rejects one occurrence of event from cid. On rejection it
// returns the suggested wait until the oldest in-window timestamp expires.
func (rl *EventRateLimiter) Allow(cid domain.ConnID, event string) (bool, time.Duration) {
	b, ok := rl.budgets[event]
	if !ok {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-b.Window)
	key := rateKey{cid: cid, event: event}

	attempts := rl.history[key]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= b.Max {
		rl.history[key] = fresh
		retry := fresh[0].Add(b.Window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return false, retry
	}

	fresh = append(fresh, now)
	rl.history[key] = fresh
	return true, 0
}

// Forget drops all buckets for a closed connection.
func (rl *EventRateLimiter) Forget(cid domain.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key := range rl.history {
		if key.cid == cid {
			delete(rl.history, key)
		}
	}
}
