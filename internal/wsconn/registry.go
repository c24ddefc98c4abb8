package wsconn

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Registry is C5's RoomRegistry: it owns every live connection, grouped
// by session, and exposes the broadcast operations the quiz engine calls
// after each state transition.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Conn // session id -> connection id -> conn
	upgrader websocket.Upgrader
	log      zerolog.Logger

	heartbeatInterval time.Duration
	readTimeout       time.Duration
}

// NewRegistry builds a Registry. allowedOrigins empty means allow-all,
// matching the teacher's buildUpgrader dev-mode default.
func NewRegistry(allowedOrigins []string, heartbeatInterval, readTimeout time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]map[string]*Conn),
		log:      log.With().Str("component", "wsconn").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if strings.EqualFold(allowed, origin) {
						return true
					}
				}
				return false
			},
		},
		heartbeatInterval: heartbeatInterval,
		readTimeout:       readTimeout,
	}
}

// Upgrade promotes an HTTP request to a WebSocket connection and
// registers it under sessionID. Callers must have already authenticated
// the caller and resolved role/participantID before calling this.
func (r *Registry) Upgrade(w http.ResponseWriter, req *http.Request, sessionID, participantID string, role Role) (*Conn, error) {
	ws, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, err
	}
	c := newConn(ws, sessionID, participantID, role)

	r.mu.Lock()
	if r.sessions[sessionID] == nil {
		r.sessions[sessionID] = make(map[string]*Conn)
	}
	connID := uuid.New().String()
	r.sessions[sessionID][connID] = c
	r.mu.Unlock()

	go c.writeLoop(r.heartbeatInterval, r.log)
	go r.cleanupOnClose(sessionID, connID, c)

	return c, nil
}

func (r *Registry) cleanupOnClose(sessionID, connID string, c *Conn) {
	<-c.done
	r.mu.Lock()
	if conns, ok := r.sessions[sessionID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.sessions, sessionID)
		}
	}
	r.mu.Unlock()
}

// Disconnect closes and deregisters a connection, e.g. after its read
// loop returns from a closed socket.
func (r *Registry) Disconnect(c *Conn) {
	c.close()
}

// Broadcast sends an envelope to every connection in a session.
func (r *Registry) Broadcast(sessionID string, e Envelope) {
	r.forEach(sessionID, func(*Conn) bool { return true }, e)
}

// BroadcastToHosts sends an envelope only to host-role connections — the
// teacher's dashboard view of a live session.
func (r *Registry) BroadcastToHosts(sessionID string, e Envelope) {
	r.forEach(sessionID, func(c *Conn) bool { return c.Role == RoleHost }, e)
}

// BroadcastToParticipants sends an envelope only to participant-role
// connections.
func (r *Registry) BroadcastToParticipants(sessionID string, e Envelope) {
	r.forEach(sessionID, func(c *Conn) bool { return c.Role == RoleParticipant }, e)
}

// SendToParticipant sends an envelope to one specific participant's
// connection, if currently connected. A no-op otherwise — the quiz
// engine's state is the source of truth, not connection liveness.
func (r *Registry) SendToParticipant(sessionID, participantID string, e Envelope) {
	r.forEach(sessionID, func(c *Conn) bool { return c.ParticipantID == participantID }, e)
}

func (r *Registry) forEach(sessionID string, match func(*Conn) bool, e Envelope) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.sessions[sessionID] {
		if match(c) {
			c.Send(e)
		}
	}
}

// ConnectionCount reports how many live connections a session currently
// has.
func (r *Registry) ConnectionCount(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[sessionID])
}
