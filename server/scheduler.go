package main

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs the periodic world tasks until its context is cancelled.
// The tasks deliver through the Coordinator's Deliverer.
type Scheduler struct {
	coord   *Coordinator
	timers  TimersConfig
	nowFunc func() time.Time
}

// NewScheduler creates a scheduler for coord
func NewScheduler(coord *Coordinator, timers TimersConfig) *Scheduler {
	return &Scheduler{coord: coord, timers: timers, nowFunc: time.Now}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.every(ctx, s.timers.LedgerReset, s.coord.ResetLedger)
	}()
	go func() {
		defer wg.Done()
		s.every(ctx, s.timers.TimeSync, s.coord.Heartbeat)
	}()
	wg.Wait()
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, task func(time.Time) []Outbound) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task(s.nowFunc())
		}
	}
}
