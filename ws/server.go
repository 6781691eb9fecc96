// Package ws is the transport layer: it upgrades HTTP connections to
// WebSockets, decodes and routes inbound events, and fans authoritative
// room state back out as JSON pushes. It knows nothing about game rules —
// that lives in engine — only how to get bytes to and from the right
// sockets.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"boxdrop/config"
	"boxdrop/engine"
	"boxdrop/projector"
	"boxdrop/state"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server owns the live connection registry and implements engine.Broadcaster
// by turning room state into per-recipient JSON pushes.
type Server struct {
	store  *state.Store
	engine *engine.Engine
	cfg    *config.Config

	upgrader websocket.Upgrader

	mu          sync.Mutex
	connections map[string]*Connection

	startedAt time.Time
}

// NewServer wires a Server to store and eng, ready to serve HandleWS once
// eng has been constructed with this Server as its Broadcaster.
func NewServer(store *state.Store, eng *engine.Engine, cfg *config.Config) *Server {
	s := &Server{
		store:       store,
		engine:      eng,
		cfg:         cfg,
		connections: map[string]*Connection{},
		startedAt:   time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return cfg == nil || cfg.AllowsOrigin(r.Header.Get("Origin"))
		},
	}
	return s
}

// SetEngine binds the engine this server dispatches events to. Exists
// because Engine's constructor takes a Broadcaster, so the two must be
// wired together after both are constructed.
func (s *Server) SetEngine(eng *engine.Engine) {
	s.engine = eng
}

// HandleWS upgrades the request and spawns the connection's read/write
// pumps, mirroring the teacher's upgrade-then-register-then-spawn pattern.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ websocket upgrade failed: %v", err)
		return
	}

	c := newConnection(uuid.NewString(), conn)
	s.mu.Lock()
	s.connections[c.ID] = c
	s.mu.Unlock()

	log.Printf("🔌 connection %s opened", c.ID)

	go c.writePump()
	go c.readPump(s)
}

func (s *Server) removeConnection(c *Connection) {
	s.mu.Lock()
	delete(s.connections, c.ID)
	s.mu.Unlock()
	close(c.Send)
}

func (s *Server) connectionByID(id string) *Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections[id]
}

// BroadcastState pushes a fresh, per-recipient game-state-update to every
// member of room. Called with room.Mu held by the engine; only builds
// snapshots and enqueues bytes, never blocks on a socket write.
func (s *Server) BroadcastState(room *state.Room, recentlyOpened *projector.RecentlyOpenedBox) {
	for _, id := range room.PlayerOrder {
		p := room.Players[id]
		conn := s.connectionByID(connIDFor(p))
		if conn == nil {
			continue
		}
		snap := projector.Project(room, id, recentlyOpened)
		conn.enqueue(mustMarshal(outbound{Event: "game-state-update", Payload: snap}))
	}
}

// BroadcastLeaderboard pushes the room's leaderboard to every member. final
// distinguishes the in-progress event name from the terminal one.
func (s *Server) BroadcastLeaderboard(room *state.Room, final bool) {
	event := "leaderboard-update"
	if final {
		event = "game-ended"
	}
	entries := projector.RoomLeaderboard(room)
	payload := mustMarshal(outbound{Event: event, Payload: map[string]interface{}{"leaderboard": entries}})

	for _, id := range room.PlayerOrder {
		conn := s.connectionByID(connIDFor(room.Players[id]))
		if conn == nil {
			continue
		}
		conn.enqueue(payload)
	}
}

// PushLeaderboardSnapshot sends the room leaderboard to a single recipient,
// used right after join/reconnect so a late arrival sees standings
// immediately rather than waiting for the next state-changing event. A
// finished room pushes the terminal game-ended event instead of the
// provisional leaderboard-update, so a late joiner to a finished room still
// receives the terminal event it otherwise missed.
func (s *Server) PushLeaderboardSnapshot(room *state.Room, recipientPlayerID string) {
	p, ok := room.Players[recipientPlayerID]
	if !ok {
		return
	}
	conn := s.connectionByID(connIDFor(p))
	if conn == nil {
		return
	}
	event := "leaderboard-update"
	if room.Phase == state.PhaseFinished {
		event = "game-ended"
	}
	entries := projector.RoomLeaderboard(room)
	conn.enqueue(mustMarshal(outbound{Event: event, Payload: map[string]interface{}{"leaderboard": entries}}))
}

func connIDFor(p *state.Player) string {
	if p == nil {
		return ""
	}
	return p.ConnectionID
}

func (s *Server) broadcastChat(room *state.Room, msg state.ChatMessage) {
	payload := mustMarshal(outbound{Event: "chat-message", Payload: msg})
	for _, id := range room.PlayerOrder {
		conn := s.connectionByID(connIDFor(room.Players[id]))
		if conn == nil {
			continue
		}
		conn.enqueue(payload)
	}
}

// broadcastPlayerLeft advises a room's remaining members that a player went
// AFK. Resident players aren't removed on disconnect, just marked.
func (s *Server) broadcastPlayerLeft(room *state.Room, playerID string) {
	payload := mustMarshal(outbound{Event: "player-left", Payload: map[string]string{"playerId": playerID}})
	for _, id := range room.PlayerOrder {
		conn := s.connectionByID(connIDFor(room.Players[id]))
		if conn == nil {
			continue
		}
		conn.enqueue(payload)
	}
}

// healthResponse is the /healthz payload: enough for an operator or a load
// balancer to judge liveness without touching game state.
type healthResponse struct {
	Status      string `json:"status"`
	UptimeS     int64  `json:"uptimeSeconds"`
	Connections int    `json:"connections"`
}

// HandleHealth reports process liveness and rough load.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.connections)
	s.mu.Unlock()

	resp := healthResponse{
		Status:      "ok",
		UptimeS:     int64(time.Since(s.startedAt).Seconds()),
		Connections: n,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// CORS wraps h with the configured allow-origin policy, mirroring the
// teacher's corsMiddleware shape.
func (s *Server) CORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.cfg != nil && s.cfg.AllowsOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
