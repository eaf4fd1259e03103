package main

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"
)

// upgrade throttles idle longer than this are forgotten
const limiterIdle = 10 * time.Minute

type ipLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Hub tracks every open connection and delivers the Coordinator's output
type Hub struct {
	mu         deadlock.RWMutex
	clients    map[string]*Client
	unregister chan *Client
	coord      *Coordinator
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     deadlock.Mutex
	limits     LimitsConfig
	limiters   map[string]*ipLimiter
	totalConns int
}

// NewHub creates a Hub feeding coord and installs it as coord's Deliverer
func NewHub(coord *Coordinator, limits LimitsConfig) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		unregister: make(chan *Client, 64),
		coord:      coord,
		limits:     limits,
		limiters:   make(map[string]*ipLimiter),
	}
	if coord != nil {
		coord.SetDeliverer(h)
	}
	return h
}

// CanAccept applies the global connection cap and the per-address upgrade
// throttle. The per-address connection cap is enforced by the Coordinator.
func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.limits.MaxTotalConns {
		return false
	}
	l, ok := h.limiters[ip]
	if !ok {
		l = &ipLimiter{lim: rate.NewLimiter(rate.Limit(h.limits.UpgradeRate), h.limits.UpgradeBurst)}
		h.limiters[ip] = l
	}
	l.lastSeen = time.Now()
	return l.lim.Allow()
}

func (h *Hub) TrackConnect() {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.totalConns++
}

func (h *Hub) TrackDisconnect() {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.totalConns--
}

// pruneLimiters forgets upgrade throttles that have not been used recently
func (h *Hub) pruneLimiters(now time.Time) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	for ip, l := range h.limiters {
		if now.Sub(l.lastSeen) > limiterIdle {
			delete(h.limiters, ip)
		}
	}
}

// Register adds client to the registry and admits it to the world. It must
// return before the client's pumps start, so the client is addressable
// before any of its messages reach the Coordinator.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	if _, err := h.coord.Connect(client.id, client.remoteAddr, time.Now()); err != nil {
		client.log.Debug().Err(err).Msg("connection refused")
	}
}

// Run processes unregister events and prunes idle upgrade throttles.
func (h *Hub) Run() {
	prune := time.NewTicker(time.Minute)
	defer prune.Stop()
	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			h.coord.Disconnect(client.id, time.Now())
			client.log.Debug().Int("clients", h.ClientCount()).Msg("unregistered")

		case now := <-prune.C:
			h.pruneLimiters(now)
		}
	}
}

// encoded caches the two wire forms of an outbound envelope
type encoded struct {
	env  Envelope
	text []byte
	bin  []byte
}

func (e *encoded) json() []byte {
	if e.text == nil {
		data, err := json.Marshal(e.env)
		if err != nil {
			log.Error().Err(err).Str("type", e.env.T).Msg("marshal error")
			return nil
		}
		e.text = data
	}
	return e.text
}

func (e *encoded) msgpack() []byte {
	if e.bin == nil {
		data, err := msgpack.Marshal(e.env)
		if err != nil {
			log.Error().Err(err).Str("type", e.env.T).Msg("msgpack marshal error")
			return nil
		}
		e.bin = data
	}
	return e.bin
}

// Deliver sends outs in order without blocking. A reliable message that does not fit a
// client's queue disconnects that client; a droppable one is skipped.
func (h *Hub) Deliver(outs []Outbound) {
	if len(outs) == 0 {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, o := range outs {
		enc := &encoded{env: o.Env}
		deliver := func(c *Client) {
			if o.Env.T != "" {
				var f frame
				if !o.Reliable && c.msgpack {
					f = frame{data: enc.msgpack(), binary: true}
				} else {
					f = frame{data: enc.json()}
				}
				if f.data != nil && !c.enqueue(f) {
					if o.Reliable {
						go c.closeSlow()
					}
					return
				}
			}
			if o.Close {
				c.closeAfterFlush()
			}
		}
		if o.To == ToOne {
			if c, ok := h.clients[o.Conn]; ok {
				deliver(c)
			}
			continue
		}
		for id, c := range h.clients {
			if o.Recipient(id) {
				deliver(c)
			}
		}
	}
}

// Kick force-closes the connection with the given id.
func (h *Hub) Kick(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	if !ok {
		return false
	}
	c.log.Info().Msg("kicked")
	c.closeAfterFlush()
	return true
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
