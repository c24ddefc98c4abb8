// Package wsconn implements C5, the per-session connection registry the
// live quiz transport layer uses to fan messages out to hosts and
// participants. Grounded on the teacher's internal/websocket envelope
// helpers and internal/handler/ws_handler.go's upgrade-then-loop pattern,
// generalized from one exam-stream connection per student into a
// registry keyed by session id with host/participant roles and a
// broadcast surface.
package wsconn

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Role distinguishes a connection's privileges within its session — a
// host can advance/end the session, a participant can only submit
// answers.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

// Envelope is the wire message shape in both directions, mirroring the
// teacher's RequestPayload/ResponsePayload but generalized to a typed
// `type` discriminator plus a free-form payload instead of flattened
// exam-specific fields.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Outbound server->client event type names (spec.md §4.3's live wire
// protocol). Inbound client->server type names are interpreted by the
// quiz engine, not this package.
const (
	EventParticipantJoined  = "participant_joined"
	EventParticipantLeft    = "participant_left"
	EventSessionStarted     = "session_started"
	EventQuestionStarted    = "question_started"
	EventAnswerAccepted     = "answer_accepted"
	EventLeaderboardUpdate  = "leaderboard_update"
	EventSessionEnded       = "session_ended"
	EventError              = "error"
	EventPong               = "pong"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 16 // 64KiB; a quiz message is never legitimately larger
	sendBufferSize = 32
)

// Conn wraps one upgraded WebSocket with a dedicated writer goroutine, so
// a slow or blocked client can never stall another connection's
// broadcasts (Design Note "per-connection send isolation").
type Conn struct {
	ws            *websocket.Conn
	send          chan Envelope
	SessionID     string
	ParticipantID string // empty for host connections
	Role          Role
	closeOnce     sync.Once
	done          chan struct{}
}

func newConn(ws *websocket.Conn, sessionID, participantID string, role Role) *Conn {
	ws.SetReadLimit(maxMessageSize)
	return &Conn{
		ws:            ws,
		send:          make(chan Envelope, sendBufferSize),
		SessionID:     sessionID,
		ParticipantID: participantID,
		Role:          role,
		done:          make(chan struct{}),
	}
}

// Send enqueues an envelope for this connection's writer goroutine.
// Non-blocking: if the connection's buffer is full (a stalled client),
// the message is dropped rather than blocking the broadcasting caller.
func (c *Conn) Send(e Envelope) {
	select {
	case c.send <- e:
	default:
	}
}

func (c *Conn) writeLoop(heartbeat time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	for {
		select {
		case e, ok := <-c.send:
			if !ok {
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(e); err != nil {
				log.Debug().Err(err).Str("session_id", c.SessionID).Msg("write failed, closing")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadJSON reads and decodes the next inbound client message, resetting
// the read deadline each call (matching the teacher's keep-alive idiom).
func (c *Conn) ReadJSON(v any, readTimeout time.Duration) error {
	c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	return c.ws.ReadJSON(v)
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		close(c.send)
		c.ws.Close()
	})
}
