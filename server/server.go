package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// AllowAnyOrigin lets a browser client served from another host connect
func AllowAnyOrigin() {
	upgrader.CheckOrigin = func(*http.Request) bool { return true }
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type loginRequest struct {
	Password string `json:"password"`
}

// AuditReader is the read side of the audit log
type AuditReader interface {
	RecentEvents(limit int) ([]AuditRow, error)
	EventCounts(days int) (map[string]int, error)
}

type auditResponse struct {
	Events []AuditRow     `json:"events"`
	Counts map[string]int `json:"counts"`
}

// queryInt reads a positive integer query parameter, clamped to max
func queryInt(r *http.Request, key string, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, max)
}

type kickRequest struct {
	Username string `json:"username"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func requireAdmin(auth *Auth, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || auth.ValidateToken(token) != nil {
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, auth *Auth, audit Recorder, cfg Config) *http.ServeMux {
	if audit == nil {
		audit = nopRecorder{}
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /qr.png", qrHandler(cfg.PublicURL))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Str("addr", ip).Msg("upgrade error")
			return
		}

		hub.TrackConnect()

		client := NewClient(hub, conn, ip, cfg.Timers, r.URL.Query().Get("codec") == "msgpack")
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("POST /admin/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		token, err := auth.Login(req.Password, extractIP(r))
		switch {
		case errors.Is(err, ErrRateLimited):
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		case errors.Is(err, ErrAdminDisabled):
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		case err != nil:
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	})

	mux.HandleFunc("GET /admin/players", requireAdmin(auth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.coord.Players())
	}))

	mux.HandleFunc("POST /admin/kick", requireAdmin(auth, func(w http.ResponseWriter, r *http.Request) {
		var req kickRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil || req.Username == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		id, ok := hub.coord.FindByName(req.Username)
		if !ok || !hub.Kick(id) {
			http.Error(w, "player not found", http.StatusNotFound)
			return
		}
		audit.Track(EvtKick, id, req.Username)
		writeJSON(w, http.StatusOK, map[string]string{"kicked": id})
	}))

	mux.HandleFunc("GET /admin/audit", requireAdmin(auth, func(w http.ResponseWriter, r *http.Request) {
		reader, ok := audit.(AuditReader)
		if !ok {
			http.Error(w, "audit log disabled", http.StatusNotFound)
			return
		}
		events, err := reader.RecentEvents(queryInt(r, "limit", 50, 500))
		if err != nil {
			log.Error().Err(err).Msg("audit read")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		counts, err := reader.EventCounts(queryInt(r, "days", 1, 90))
		if err != nil {
			log.Error().Err(err).Msg("audit counts")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []AuditRow{}
		}
		writeJSON(w, http.StatusOK, auditResponse{Events: events, Counts: counts})
	}))

	return mux
}
