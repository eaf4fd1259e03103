package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBoundary(t *testing.T) {
	for kind, cooldown := range Cooldowns {
		t.Run(string(kind), func(t *testing.T) {
			r := NewRateLimiter(nil)
			t0 := time.Unix(1000, 0)
			assert.True(t, r.Allow("c1", kind, t0), "first event always passes")
			assert.False(t, r.Allow("c1", kind, t0.Add(cooldown-time.Millisecond)))
			assert.True(t, r.Allow("c1", kind, t0.Add(cooldown)))
		})
	}
}

func TestRateLimiterRejectionDoesNotReset(t *testing.T) {
	r := NewRateLimiter(nil)
	t0 := time.Unix(1000, 0)
	r.Allow("c1", KindFire, t0)
	assert.False(t, r.Allow("c1", KindFire, t0.Add(200*time.Millisecond)))
	// measured from the accepted shot, not the rejected one
	assert.True(t, r.Allow("c1", KindFire, t0.Add(300*time.Millisecond)))
}

func TestRateLimiterKindsAndConnsIndependent(t *testing.T) {
	r := NewRateLimiter(nil)
	t0 := time.Unix(1000, 0)
	assert.True(t, r.Allow("c1", KindChat, t0))
	assert.True(t, r.Allow("c1", KindFire, t0))
	assert.True(t, r.Allow("c2", KindChat, t0))
	assert.False(t, r.Allow("c1", KindChat, t0.Add(time.Millisecond)))
}

func TestRateLimiterForget(t *testing.T) {
	r := NewRateLimiter(nil)
	t0 := time.Unix(1000, 0)
	r.Allow("c1", KindRespawn, t0)
	assert.True(t, r.Tracked("c1"))

	r.Forget("c1")
	assert.False(t, r.Tracked("c1"))
	assert.True(t, r.Allow("c1", KindRespawn, t0.Add(time.Millisecond)))

	r.Forget("never-seen")
}

func TestRateLimiterUnknownKind(t *testing.T) {
	r := NewRateLimiter(nil)
	t0 := time.Unix(1000, 0)
	assert.True(t, r.Allow("c1", EventKind("wave"), t0))
	assert.True(t, r.Allow("c1", EventKind("wave"), t0))
}
