package main

import (
	"slices"
	"sort"
	"time"
)

// Ship archetypes a client may pick. Anything else flies as DefaultShip.
var ValidShips = []string{"Flowers Ship", "Angel Ship", "Chris Ship", DefaultShip}

const DefaultShip = "default"

// ConnState is the lifecycle state of one connection as the ledger sees it
type ConnState int

const (
	StateNone ConnState = iota // never connected or already cleaned up
	StatePending
	StateReadyAlive
	StateReadyDead
	StateNotReady
)

func (s ConnState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReadyAlive:
		return "alive"
	case StateReadyDead:
		return "dead"
	case StateNotReady:
		return "not_ready"
	default:
		return "none"
	}
}

// PendingEntry holds the spawn handed to a connection that has not joined yet
type PendingEntry struct {
	Position  Vec3
	CreatedAt time.Time
}

// PlayerState is the authoritative record of a joined pilot
type PlayerState struct {
	ID       string
	Position Vec3
	Rotation Vec3
	Ship     string
	Name     string
	Alive    bool
	Ready    bool
	Kills    int

	joinSeq    uint64
	lastMoveAt time.Time // zero until the first accepted move
}

// Info returns the public fields broadcast to other clients
func (p *PlayerState) Info() PlayerInfo {
	return PlayerInfo{
		ID:       p.ID,
		Position: p.Position,
		Rotation: p.Rotation,
		Ship:     p.Ship,
		Name:     p.Name,
	}
}

// Candidate is one roster entry as seen by the hit detector
type Candidate struct {
	ID     string
	Alive  bool
	Ready  bool
	Sphere *HitSphere
}

// World is the shared ledger: pending table, roster, hitbox cache,
// destroyed voxels and per-address connection counts. It does no locking of
// its own; the Coordinator serializes every access.
type World struct {
	pending   map[string]*PendingEntry
	players   map[string]*PlayerState
	spheres   map[string]HitSphere
	destroyed map[string]map[int64]struct{}
	ipConns   map[string]int
	connAddr  map[string]string
	nextSeq   uint64
	hitRadius float64
}

// NewWorld creates an empty ledger
func NewWorld(hitRadius float64) *World {
	return &World{
		pending:   make(map[string]*PendingEntry),
		players:   make(map[string]*PlayerState),
		spheres:   make(map[string]HitSphere),
		destroyed: make(map[string]map[int64]struct{}),
		ipConns:   make(map[string]int),
		connAddr:  make(map[string]string),
		hitRadius: hitRadius,
	}
}

// State reports where conn is in its lifecycle
func (w *World) State(conn string) ConnState {
	if _, ok := w.pending[conn]; ok {
		return StatePending
	}
	p, ok := w.players[conn]
	switch {
	case !ok:
		return StateNone
	case !p.Ready:
		return StateNotReady
	case p.Alive:
		return StateReadyAlive
	default:
		return StateReadyDead
	}
}

// --- pending table ---

func (w *World) addPending(conn string, pos Vec3, now time.Time) {
	w.pending[conn] = &PendingEntry{Position: pos, CreatedAt: now}
}

func (w *World) takePending(conn string) (*PendingEntry, bool) {
	e, ok := w.pending[conn]
	if ok {
		delete(w.pending, conn)
	}
	return e, ok
}

func (w *World) restorePending(conn string, e *PendingEntry) {
	w.pending[conn] = e
}

// --- roster ---

// Player returns the joined player for conn, or nil
func (w *World) Player(conn string) *PlayerState {
	return w.players[conn]
}

func (w *World) addPlayer(p *PlayerState) {
	w.nextSeq++
	p.joinSeq = w.nextSeq
	w.players[p.ID] = p
	w.refreshSphere(p.ID)
}

func (w *World) removePlayer(conn string) (*PlayerState, bool) {
	p, ok := w.players[conn]
	if !ok {
		return nil, false
	}
	delete(w.players, conn)
	delete(w.spheres, conn)
	return p, true
}

// restorePlayer puts back a player removed in the same event, keeping its join order
func (w *World) restorePlayer(p *PlayerState) {
	w.players[p.ID] = p
	w.refreshSphere(p.ID)
}

// JoinedCount returns the number of PlayerStates
func (w *World) JoinedCount() int { return len(w.players) }

// PendingCount returns the number of connections that have not joined
func (w *World) PendingCount() int { return len(w.pending) }

// Roster returns every joined player in join order
func (w *World) Roster() []*PlayerState {
	list := make([]*PlayerState, 0, len(w.players))
	for _, p := range w.players {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].joinSeq < list[j].joinSeq })
	return list
}

// readyRoster is what a new joiner gets to see: every other alive, ready ship
func (w *World) readyRoster(except string) map[string]PlayerInfo {
	out := make(map[string]PlayerInfo)
	for id, p := range w.players {
		if id == except || !p.Ready || !p.Alive {
			continue
		}
		out[id] = p.Info()
	}
	return out
}

// FindByName returns the first joined player (in join order) with the given display name
func (w *World) FindByName(name string) *PlayerState {
	for _, p := range w.Roster() {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// --- hitbox cache ---

// refreshSphere recomputes the hitbox for conn; it exists iff the player is alive and ready
func (w *World) refreshSphere(conn string) {
	p, ok := w.players[conn]
	if !ok || !p.Alive || !p.Ready {
		delete(w.spheres, conn)
		return
	}
	w.spheres[conn] = HitSphere{Center: p.Position, Radius: w.hitRadius}
}

// Sphere returns the cached hitbox for conn
func (w *World) Sphere(conn string) (HitSphere, bool) {
	s, ok := w.spheres[conn]
	return s, ok
}

// Candidates returns the roster in join order for hit testing
func (w *World) Candidates() []Candidate {
	roster := w.Roster()
	out := make([]Candidate, 0, len(roster))
	for _, p := range roster {
		c := Candidate{ID: p.ID, Alive: p.Alive, Ready: p.Ready}
		if s, ok := w.spheres[p.ID]; ok {
			c.Sphere = &s
		}
		out = append(out, c)
	}
	return out
}

// --- destruction ledger ---

// markDestroyed records (body, unit); it reports false if it was already recorded.
func (w *World) markDestroyed(body string, unit int64) bool {
	set, ok := w.destroyed[body]
	if !ok {
		set = make(map[int64]struct{})
		w.destroyed[body] = set
	}
	if _, dup := set[unit]; dup {
		return false
	}
	set[unit] = struct{}{}
	return true
}

func (w *World) unmarkDestroyed(body string, unit int64) {
	set := w.destroyed[body]
	delete(set, unit)
	if len(set) == 0 {
		delete(w.destroyed, body)
	}
}

// IsDestroyed reports whether the unit is recorded destroyed
func (w *World) IsDestroyed(body string, unit int64) bool {
	_, ok := w.destroyed[body][unit]
	return ok
}

// DestroyedSnapshot copies the ledger with unit ids sorted per body
func (w *World) DestroyedSnapshot() map[string][]int64 {
	out := make(map[string][]int64, len(w.destroyed))
	for body, set := range w.destroyed {
		units := make([]int64, 0, len(set))
		for u := range set {
			units = append(units, u)
		}
		slices.Sort(units)
		out[body] = units
	}
	return out
}

// clearDestroyed empties the ledger and returns how many units were restored
func (w *World) clearDestroyed() int {
	n := 0
	for _, set := range w.destroyed {
		n += len(set)
	}
	w.destroyed = make(map[string]map[int64]struct{})
	return n
}

// --- per-address connection slots ---

func (w *World) acquireAddr(conn, addr string, max int) bool {
	if w.ipConns[addr] >= max {
		return false
	}
	w.ipConns[addr]++
	w.connAddr[conn] = addr
	return true
}

func (w *World) releaseAddr(conn string) {
	addr, ok := w.connAddr[conn]
	if !ok {
		return
	}
	delete(w.connAddr, conn)
	w.ipConns[addr]--
	if w.ipConns[addr] <= 0 {
		delete(w.ipConns, addr)
	}
}

// AddrConns returns how many open connections addr holds
func (w *World) AddrConns(addr string) int { return w.ipConns[addr] }
