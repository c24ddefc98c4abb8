package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/middleware"
	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/quiz"
	"github.com/stemsi/classhub-backend/internal/store"
	"github.com/stemsi/classhub-backend/internal/wsconn"
)

const wsReadTimeout = 90 * time.Second

// WSHandler upgrades HTTP connections into the live session's WebSocket
// transport and dispatches inbound envelopes into the quiz engine,
// replacing the teacher's single-exam-stream handler with a host/
// participant split over the shared session registry.
type WSHandler struct {
	registry *wsconn.Registry
	engine   *quiz.Engine
	store    store.Store
	log      zerolog.Logger
}

func NewWSHandler(registry *wsconn.Registry, engine *quiz.Engine, st store.Store, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry: registry,
		engine:   engine,
		store:    st,
		log:      log.With().Str("component", "ws_handler").Logger(),
	}
}

// HostStream godoc
// WS /ws/v1/sessions/:sessionID/host?token=<tenant jwt>
// Only the owning tenant may open the host stream for a session.
func (h *WSHandler) HostStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	sessionID := c.Param("sessionID")
	id := identity.Context{TenantID: claims.TenantID}

	sess, err := h.store.GetSession(c.Request.Context(), id, sessionID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "session not found for tenant"})
		return
	}

	conn, err := h.registry.Upgrade(c.Writer, c.Request, sess.ID, "", wsconn.RoleHost)
	if err != nil {
		h.log.Error().Err(err).Msg("host ws upgrade failed")
		return
	}
	defer h.registry.Disconnect(conn)

	wsLog := h.log.With().Str("session_id", sess.ID).Str("role", "host").Logger()
	wsLog.Info().Msg("host connected")

	for {
		var env wsconn.Envelope
		if err := conn.ReadJSON(&env, wsReadTimeout); err != nil {
			wsLog.Debug().Err(err).Msg("host stream closed")
			return
		}
		switch env.Type {
		case "advance":
			if _, err := h.engine.Advance(c.Request.Context(), id, sessionID); err != nil {
				conn.Send(errEnvelope(err))
			}
		case "end":
			if _, err := h.engine.End(c.Request.Context(), id, sessionID, model.EndReasonHost); err != nil {
				conn.Send(errEnvelope(err))
			}
		default:
			conn.Send(wsconn.Envelope{Type: wsconn.EventError, Error: "unknown message type: " + env.Type})
		}
	}
}

// submitAnswerPayload is the inbound body of a "submit_answer" envelope.
type submitAnswerPayload struct {
	QuestionID  string          `json:"question_id"`
	Answer      json.RawMessage `json:"answer"`
	TimeTakenMs int64           `json:"time_taken_ms"`
}

// ParticipantStream godoc
// WS /ws/v1/sessions/:sessionID/join?participant_id=<id>&token=<guest token>
// Students who joined with a resolvable external_id carry no guest
// token (GuestToken is nil); their stream authenticates on participant
// id plus session membership alone.
func (h *WSHandler) ParticipantStream(c *gin.Context) {
	sessionID := c.Param("sessionID")
	participantID := c.Query("participant_id")
	token := c.Query("token")

	participant, err := h.store.GetParticipant(c.Request.Context(), participantID)
	if err != nil || participant.SessionID != sessionID {
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown participant for session"})
		return
	}
	if participant.GuestToken != nil && *participant.GuestToken != token {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		return
	}

	conn, err := h.registry.Upgrade(c.Writer, c.Request, sessionID, participantID, wsconn.RoleParticipant)
	if err != nil {
		h.log.Error().Err(err).Msg("participant ws upgrade failed")
		return
	}
	defer h.registry.Disconnect(conn)

	wsLog := h.log.With().Str("session_id", sessionID).Str("participant_id", participantID).Logger()
	wsLog.Info().Msg("participant connected")

	for {
		var env wsconn.Envelope
		if err := conn.ReadJSON(&env, wsReadTimeout); err != nil {
			wsLog.Debug().Err(err).Msg("participant stream closed")
			return
		}
		if env.Type != "submit_answer" {
			conn.Send(wsconn.Envelope{Type: wsconn.EventError, Error: "unknown message type: " + env.Type})
			continue
		}

		var body submitAnswerPayload
		if err := json.Unmarshal(env.Payload, &body); err != nil {
			conn.Send(wsconn.Envelope{Type: wsconn.EventError, Error: "malformed submit_answer payload"})
			continue
		}

		if _, err := h.engine.SubmitAnswer(c.Request.Context(), sessionID, participantID, body.QuestionID, body.Answer, body.TimeTakenMs); err != nil {
			conn.Send(errEnvelope(err))
		}
	}
}

func errEnvelope(err error) wsconn.Envelope {
	return wsconn.Envelope{Type: wsconn.EventError, Error: err.Error()}
}
