package main

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// EventKind names a throttled class of inbound event.
type EventKind string

const (
	KindChat    EventKind = "chat"
	KindMove    EventKind = "move"
	KindFire    EventKind = "fire"
	KindRespawn EventKind = "respawn"
	KindDestroy EventKind = "destroy"
)

// Cooldowns is the minimum spacing between two accepted events of a kind
// from the same connection.
var Cooldowns = map[EventKind]time.Duration{
	KindChat:    1000 * time.Millisecond,
	KindMove:    50 * time.Millisecond,
	KindFire:    300 * time.Millisecond,
	KindRespawn: 3000 * time.Millisecond,
	KindDestroy: 100 * time.Millisecond,
}

// RateLimiter remembers when each (connection, kind) pair last got through.
// Rejected events are dropped, never queued.
type RateLimiter struct {
	mu        deadlock.Mutex
	cooldowns map[EventKind]time.Duration
	last      map[string]map[EventKind]time.Time
}

// NewRateLimiter creates a limiter using the given cooldown table
func NewRateLimiter(cooldowns map[EventKind]time.Duration) *RateLimiter {
	if cooldowns == nil {
		cooldowns = Cooldowns
	}
	return &RateLimiter{
		cooldowns: cooldowns,
		last:      make(map[string]map[EventKind]time.Time),
	}
}

// Allow reports whether an event of kind from conn may proceed at now.
// On true, now becomes the new reference time for the pair.
func (r *RateLimiter) Allow(conn string, kind EventKind, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, ok := r.last[conn]
	if !ok {
		records = make(map[EventKind]time.Time)
		r.last[conn] = records
	}
	if last, ok := records[kind]; ok && now.Sub(last) < r.cooldowns[kind] {
		return false
	}
	records[kind] = now
	return true
}

// Forget drops every record held for conn.
func (r *RateLimiter) Forget(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.last, conn)
}

// Tracked reports whether any record is held for conn.
func (r *RateLimiter) Tracked(conn string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.last[conn]
	return ok
}
