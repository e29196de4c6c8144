package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewEventRateLimiter(map[string]Budget{
		"transmit_text": {Max: 3, Window: time.Minute},
	})
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("c1", "transmit_text")
		assert.True(t, ok, "event %d inside budget", i+1)
	}

	// The (N+1)-th occurrence inside the window is rejected with a hint.
	ok, retry := rl.Allow("c1", "transmit_text")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Minute)

	// After the window elapses the counter resets.
	now = now.Add(time.Minute + time.Second)
	ok, _ = rl.Allow("c1", "transmit_text")
	assert.True(t, ok)
}

func TestRateLimiterIsolation(t *testing.T) {
	rl := NewEventRateLimiter(map[string]Budget{
		"join_room":     {Max: 1, Window: time.Minute},
		"transmit_text": {Max: 1, Window: time.Minute},
	})
	now := time.Unix(2000, 0)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("c1", "join_room")
	assert.True(t, ok)
	ok, _ = rl.Allow("c1", "join_room")
	assert.False(t, ok)

	// Other event types and other connections keep their own buckets.
	ok, _ = rl.Allow("c1", "transmit_text")
	assert.True(t, ok)
	ok, _ = rl.Allow("c2", "join_room")
	assert.True(t, ok)
}

func TestRateLimiterUnbudgetedEvent(t *testing.T) {
	rl := NewEventRateLimiter(map[string]Budget{})
	for i := 0; i < 1000; i++ {
		ok, _ := rl.Allow("c1", "heartbeat")
		assert.True(t, ok)
	}
}

func TestRateLimiterForget(t *testing.T) {
	rl := NewEventRateLimiter(map[string]Budget{
		"transmit_text": {Max: 1, Window: time.Minute},
	})
	now := time.Unix(3000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("c1", "transmit_text")
	ok, _ := rl.Allow("c1", "transmit_text")
	assert.False(t, ok)

	rl.Forget("c1")
	ok, _ = rl.Allow("c1", "transmit_text")
	assert.True(t, ok)
}
