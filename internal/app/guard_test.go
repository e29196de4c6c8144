package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuardThreshold(t *testing.T) {
	g := NewBruteForceGuard(10, 5*time.Minute)
	now := time.Unix(1000, 0)
	g.now = func() time.Time { return now }

	for i := 0; i < 9; i++ {
		g.Fail("c1")
		assert.False(t, g.Blocked("c1"), "still under threshold after %d failures", i+1)
	}
	g.Fail("c1")
	assert.True(t, g.Blocked("c1"))

	// Other connections are unaffected.
	assert.False(t, g.Blocked("c2"))
}

func TestGuardWindowExpiry(t *testing.T) {
	g := NewBruteForceGuard(10, 5*time.Minute)
	now := time.Unix(1000, 0)
	g.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		g.Fail("c1")
	}
	assert.True(t, g.Blocked("c1"))

	now = now.Add(5 * time.Minute)
	assert.False(t, g.Blocked("c1"))

	// A failure after expiry starts a fresh window, not a continuation.
	g.Fail("c1")
	assert.False(t, g.Blocked("c1"))
}

func TestGuardClearedOnSuccess(t *testing.T) {
	g := NewBruteForceGuard(10, 5*time.Minute)
	now := time.Unix(1000, 0)
	g.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		g.Fail("c1")
	}
	assert.True(t, g.Blocked("c1"))

	g.Clear("c1")
	assert.False(t, g.Blocked("c1"))
}
