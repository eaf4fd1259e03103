package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

var (
	ErrCapacity  = errors.New("server full")
	ErrNoPending = errors.New("join without pending entry")
)

const killPoints = 100

// Recorder receives audit events. Analytics is the sqlite-backed implementation.
type Recorder interface {
	Track(evtType, connID, data string)
}

type nopRecorder struct{}

func (nopRecorder) Track(string, string, string) {}

type handlerFunc func(tx *txn, conn string, raw json.RawMessage) []Outbound

// txn collects undo steps and audit events for one handler run.
type txn struct {
	w      *World
	now    time.Time
	undo   []func()
	events [][3]string
}

func (t *txn) onUndo(f func()) { t.undo = append(t.undo, f) }

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.events = nil
}

func (t *txn) audit(evt, conn, data string) {
	t.events = append(t.events, [3]string{evt, conn, data})
}

// touch snapshots p so a rollback restores it and its hit sphere
func (t *txn) touch(p *PlayerState) {
	saved := *p
	t.onUndo(func() {
		*p = saved
		t.w.refreshSphere(p.ID)
	})
}

func (t *txn) addPending(conn string, pos Vec3) {
	t.w.addPending(conn, pos, t.now)
	t.onUndo(func() { t.w.takePending(conn) })
}

func (t *txn) takePending(conn string) (*PendingEntry, bool) {
	e, ok := t.w.takePending(conn)
	if ok {
		t.onUndo(func() { t.w.restorePending(conn, e) })
	}
	return e, ok
}

func (t *txn) addPlayer(p *PlayerState) {
	t.w.addPlayer(p)
	t.onUndo(func() { t.w.removePlayer(p.ID) })
}

func (t *txn) removePlayer(conn string) (*PlayerState, bool) {
	p, ok := t.w.removePlayer(conn)
	if ok {
		t.onUndo(func() { t.w.restorePlayer(p) })
	}
	return p, ok
}

func (t *txn) markDestroyed(body string, unit int64) bool {
	if !t.w.markDestroyed(body, unit) {
		return false
	}
	t.onUndo(func() { t.w.unmarkDestroyed(body, unit) })
	return true
}

func (t *txn) acquireAddr(conn, addr string, max int) bool {
	if !t.w.acquireAddr(conn, addr, max) {
		return false
	}
	t.onUndo(func() { t.w.releaseAddr(conn) })
	return true
}

func (t *txn) releaseAddr(conn string) {
	addr, ok := t.w.connAddr[conn]
	if !ok {
		return
	}
	t.w.releaseAddr(conn)
	t.onUndo(func() { t.w.acquireAddr(conn, addr, int(^uint(0)>>1)) })
}

// Deliverer hands outbound messages to connected clients. Deliver must not
// block: the Coordinator calls it with the world lock held.
type Deliverer interface {
	Deliver(outs []Outbound)
}

// Coordinator owns the World and applies every lifecycle transition under
// a single lock. The resulting messages are handed to the Deliverer before
// the lock is released, so every client sees events in the order they were
// applied. Each call also returns them for inspection.
type Coordinator struct {
	mu       deadlock.Mutex
	cfg      Config
	world    *World
	limiter  *RateLimiter
	audit    Recorder
	out      Deliverer
	rng      *rand.Rand
	handlers map[string]handlerFunc
	log      zerolog.Logger
}

// NewCoordinator creates a Coordinator with an empty world
func NewCoordinator(cfg Config, audit Recorder) *Coordinator {
	if audit == nil {
		audit = nopRecorder{}
	}
	c := &Coordinator{
		cfg:     cfg,
		world:   NewWorld(cfg.World.HitRadius),
		limiter: NewRateLimiter(nil),
		audit:   audit,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     log.With().Str("component", "coordinator").Logger(),
	}
	c.handlers = map[string]handlerFunc{
		MsgJoin:    c.handleJoin,
		MsgLeave:   c.handleLeave,
		MsgMove:    c.handleMove,
		MsgFire:    c.handleFire,
		MsgDestroy: c.handleDestroy,
		MsgRespawn: c.handleRespawn,
		MsgChat:    c.handleChat,
		MsgPong:    c.handlePong,
	}
	return c
}

// SetDeliverer routes every future outbound list to d.
func (c *Coordinator) SetDeliverer(d Deliverer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = d
}

// run executes fn under the ledger lock. A panic inside fn rolls back every
// recorded mutation and discards the outbound list.
func (c *Coordinator) run(conn, kind string, now time.Time, fn func(tx *txn) []Outbound) (outs []Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx := &txn{w: c.world, now: now}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			outs = nil
			c.log.Error().
				Str("conn", conn).
				Str("kind", kind).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("handler panicked, world rolled back")
		}
	}()

	outs = fn(tx)
	for _, e := range tx.events {
		c.audit.Track(e[0], e[1], e[2])
	}
	if c.out != nil && len(outs) > 0 {
		c.out.Deliver(outs)
	}
	return outs
}

func (c *Coordinator) spawn() Vec3 {
	w := c.cfg.World
	return Vec3{
		X: c.rng.Float64()*2*w.SpawnHalfWidth - w.SpawnHalfWidth,
		Y: w.SpawnMinY + c.rng.Float64()*(w.SpawnMaxY-w.SpawnMinY),
		Z: c.rng.Float64()*2*w.SpawnHalfWidth - w.SpawnHalfWidth,
	}
}

// Connect admits a new connection as pending. On rejection the returned
// messages tell the client why and close it, and the error wraps ErrCapacity.
func (c *Coordinator) Connect(conn, addr string, now time.Time) ([]Outbound, error) {
	var err error
	outs := c.run(conn, "connect", now, func(tx *txn) []Outbound {
		w := tx.w
		if w.State(conn) != StateNone {
			err = fmt.Errorf("connection %s already registered", conn)
			return nil
		}
		if w.JoinedCount() >= c.cfg.Limits.MaxPlayers {
			err = fmt.Errorf("%d players joined: %w", w.JoinedCount(), ErrCapacity)
			tx.audit(EvtReject, conn, "players")
			return []Outbound{One(conn, MsgFull, FullMsg{Message: "Server is full"}).AndClose()}
		}
		if !tx.acquireAddr(conn, addr, c.cfg.Limits.MaxConnsPerIP) {
			err = fmt.Errorf("address %s at limit: %w", addr, ErrCapacity)
			tx.audit(EvtReject, conn, "address")
			return []Outbound{One(conn, MsgFull, FullMsg{Message: "Too many connections from your address"}).AndClose()}
		}
		pos := c.spawn()
		tx.addPending(conn, pos)
		tx.audit(EvtConnect, conn, addr)
		return []Outbound{
			One(conn, MsgInit, InitMsg{ID: conn, Position: pos}),
			One(conn, MsgTime, TimeMsg{Timestamp: now.UnixMilli()}),
			One(conn, MsgCount, CountMsg{Count: w.JoinedCount()}),
		}
	})
	if err != nil {
		c.log.Info().Err(err).Str("conn", conn).Str("addr", addr).Msg("connection rejected")
	}
	return outs, err
}

// Handle dispatches one inbound message. Unknown kinds are ignored.
func (c *Coordinator) Handle(conn, kind string, raw json.RawMessage, now time.Time) []Outbound {
	h, ok := c.handlers[kind]
	if !ok {
		c.log.Debug().Str("conn", conn).Str("kind", kind).Msg("unknown message kind")
		return nil
	}
	return c.run(conn, kind, now, func(tx *txn) []Outbound {
		return h(tx, conn, raw)
	})
}

// Disconnect removes every trace of conn. Calling it twice is harmless.
func (c *Coordinator) Disconnect(conn string, now time.Time) []Outbound {
	return c.run(conn, "disconnect", now, func(tx *txn) []Outbound {
		tx.takePending(conn)
		p, hadPlayer := tx.removePlayer(conn)
		tx.releaseAddr(conn)
		c.limiter.Forget(conn)
		if !hadPlayer {
			return nil
		}
		tx.audit(EvtDisconnect, conn, p.Name)
		return []Outbound{
			Others(conn, MsgLeft, IDMsg{ID: conn}),
			All(MsgCount, CountMsg{Count: tx.w.JoinedCount()}),
			c.leaderboard(tx.w),
		}
	})
}

// ResetLedger restores every destroyed voxel. It does nothing while no
// player is joined.
func (c *Coordinator) ResetLedger(now time.Time) []Outbound {
	return c.run("", "reset", now, func(tx *txn) []Outbound {
		if tx.w.JoinedCount() == 0 {
			return nil
		}
		n := tx.w.clearDestroyed()
		c.log.Debug().Int("units", n).Msg("destruction ledger reset")
		return []Outbound{All(MsgReset, nil)}
	})
}

// Heartbeat broadcasts the server clock and the leaderboard to every
// connection, or nothing when the server is empty.
func (c *Coordinator) Heartbeat(now time.Time) []Outbound {
	return c.run("", "heartbeat", now, func(tx *txn) []Outbound {
		if tx.w.JoinedCount()+tx.w.PendingCount() == 0 {
			return nil
		}
		return []Outbound{
			All(MsgTime, TimeMsg{Timestamp: now.UnixMilli()}),
			c.leaderboard(tx.w),
		}
	})
}

// Players lists joined players in join order.
func (c *Coordinator) Players() []LeaderboardEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	roster := c.world.Roster()
	out := make([]LeaderboardEntry, len(roster))
	for i, p := range roster {
		out[i] = LeaderboardEntry{ID: p.ID, Username: p.Name, Kills: p.Kills}
	}
	return out
}

// FindByName returns the connection id of the first player using name.
func (c *Coordinator) FindByName(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.world.FindByName(name)
	if p == nil {
		return "", false
	}
	return p.ID, true
}

// Occupancy returns the joined and pending counts.
func (c *Coordinator) Occupancy() (joined, pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world.JoinedCount(), c.world.PendingCount()
}

// State reports conn's lifecycle state.
func (c *Coordinator) State(conn string) ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world.State(conn)
}

func (c *Coordinator) leaderboard(w *World) Outbound {
	return All(MsgLeaderboard, Leaderboard(w.Roster()))
}
