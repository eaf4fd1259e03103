package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanDeliverer records delivered lists; it drops them when full since
// Deliver runs under the world lock.
type chanDeliverer chan []Outbound

func (d chanDeliverer) Deliver(outs []Outbound) {
	select {
	case d <- outs:
	default:
	}
}

func TestSchedulerRunsTasks(t *testing.T) {
	c := newTestCoordinator(t)
	join(t, c, "a", "A", t0)
	destroy(t, c, "a", "moon", 1, t0)

	out := make(chanDeliverer, 16)
	c.SetDeliverer(out)
	s := NewScheduler(c, TimersConfig{
		LedgerReset: 10 * time.Millisecond,
		TimeSync:    15 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	seen := map[string]bool{}
	deadline := time.After(2 * time.Second)
	for !(seen[MsgReset] && seen[MsgTime] && seen[MsgLeaderboard]) {
		select {
		case outs := <-out:
			for _, o := range outs {
				seen[o.Env.T] = true
			}
		case <-deadline:
			t.Fatalf("periodic tasks did not run, saw %v", seen)
		}
	}
	c.mu.Lock()
	assert.Empty(t, c.world.DestroyedSnapshot())
	c.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerQuietWhenEmpty(t *testing.T) {
	c := newTestCoordinator(t)
	out := make(chanDeliverer, 16)
	c.SetDeliverer(out)
	s := NewScheduler(c, TimersConfig{LedgerReset: 5 * time.Millisecond, TimeSync: 5 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	require.Len(t, out, 0)
}
