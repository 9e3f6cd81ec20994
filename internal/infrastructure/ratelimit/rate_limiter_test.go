package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_BurstThenDenied(t *testing.T) {
	rl := NewRateLimiter(map[string]Policy{"contact": PerMinute(5)})
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	for i := 0; i < 5; i++ {
		ok, _ := rl.Allow("10.0.0.1", "contact")
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, wait := rl.Allow("10.0.0.1", "contact")
	assert.False(t, ok)
	assert.InDelta(t, 12*time.Second, wait, float64(time.Second))

	ok, _ = rl.Allow("10.0.0.2", "contact")
	assert.True(t, ok, "other keys have their own bucket")
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := NewRateLimiter(map[string]Policy{"send_message": {Every: time.Second, Burst: 1}})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("u1", "send_message")
	assert.True(t, ok)
	ok, _ = rl.Allow("u1", "send_message")
	assert.False(t, ok)

	now = now.Add(time.Second)
	ok, _ = rl.Allow("u1", "send_message")
	assert.True(t, ok)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("u1", "anything")
	assert.Len(t, rl.buckets, 1)

	now = now.Add(2 * time.Hour)
	rl.Cleanup(time.Hour)
	assert.Empty(t, rl.buckets)
}
