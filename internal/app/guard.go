package app

import (
	"sync"
	"time"

	"github.com/ghostline/relay/internal/domain"
)

type failRecord struct {
	count       int
	windowStart time.Time
}

// BruteForceGuard counts failed join attempts per connection inside a fixed
// window. Independent of the generic rate limiter: it fires before any
// validation, so hammering even well-formed codes gets cut off.
type BruteForceGuard struct {
	mu        sync.Mutex
	records   map[domain.ConnID]*failRecord
	threshold int
	window    time.Duration
	now       func() time.Time
}

func NewBruteForceGuard(threshold int, window time.Duration) *BruteForceGuard {
	return &BruteForceGuard{
		records:   make(map[domain.ConnID]*failRecord),
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// Blocked reports whether cid is over the failure threshold. An expired
// window clears the record lazily.
func (g *BruteForceGuard) Blocked(cid domain.ConnID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[cid]
	if !ok {
		return false
	}
	if g.now().Sub(rec.windowStart) >= g.window {
		delete(g.records, cid)
		return false
	}
	return rec.count >= g.threshold
}

// Fail records one failed join attempt.
func (g *BruteForceGuard) Fail(cid domain.ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	rec, ok := g.records[cid]
	if !ok || now.Sub(rec.windowStart) >= g.window {
		g.records[cid] = &failRecord{count: 1, windowStart: now}
		return
	}
	rec.count++
}

// Clear wipes the record, on a successful join or connection teardown.
func (g *BruteForceGuard) Clear(cid domain.ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, cid)
}
