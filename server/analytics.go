package main

import (
	"database/sql"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Audit event types
const (
	EvtConnect    = "connect"
	EvtJoin       = "join"
	EvtKill       = "kill"
	EvtReject     = "reject"
	EvtDisconnect = "disconnect"
	EvtKick       = "kick"
)

const (
	flushEvery = 5 * time.Second
	flushBatch = 50
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	ConnID    string
	Data      string
	Timestamp time.Time
}

// Analytics writes audit events to the database in batches from a background goroutine
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, 1024),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, connID, data string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		ConnID:    connID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// never block the world lock on disk
	}
}

// Stop flushes what is queued and shuts down the writer
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= flushBatch {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
		drain:
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Error().Err(err).Msg("analytics: begin tx")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO audit_events (event_type, conn_id, data, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		log.Error().Err(err).Msg("analytics: prepare")
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		cid := sql.NullString{String: evt.ConnID, Valid: evt.ConnID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, cid, data, evt.Timestamp.Format(time.RFC3339Nano)); err != nil {
			log.Error().Err(err).Msg("analytics: insert")
		}
	}
	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("analytics: commit")
	}
}

// RecentEvents returns the latest persisted events, newest first. Events
// still waiting in the batch are not included.
func (a *Analytics) RecentEvents(limit int) ([]AuditRow, error) {
	if a.db == nil {
		return nil, nil
	}
	return a.db.RecentEvents(limit)
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM audit_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}
