package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/quiz"
	"github.com/stemsi/classhub-backend/internal/response"
	"github.com/stemsi/classhub-backend/internal/validator"
)

// SessionHandler handles the public, cross-tenant join path of a live
// session — a guest only ever knows a room code, never a tenant.
type SessionHandler struct {
	engine *quiz.Engine
}

func NewSessionHandler(engine *quiz.Engine) *SessionHandler {
	return &SessionHandler{engine: engine}
}

type joinSessionRequest struct {
	RoomCode   string `json:"room_code" binding:"required,len=6"`
	Kind       string `json:"kind" binding:"required,oneof=student guest identified_guest"`
	Name       string `json:"name" binding:"required_unless=Kind student,max=200"`
	ExternalID string `json:"external_id" binding:"required_if=Kind student,max=100"`
}

// Join godoc
// POST /api/v1/sessions/join
func (h *SessionHandler) Join(c *gin.Context) {
	var req joinSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	participant, err := h.engine.Join(c.Request.Context(), req.RoomCode, model.Joiner{
		Kind:       model.IdentityKind(req.Kind),
		Name:       req.Name,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		response.FailFromError(c, err)
		return
	}

	// GuestToken travels only in this one response — it is the bearer
	// credential the participant's WebSocket upgrade presents back,
	// which is why the model's JSON tag hides it everywhere else.
	body := gin.H{"participant": participant}
	if participant.GuestToken != nil {
		body["guest_token"] = *participant.GuestToken
	}
	response.Success(c, http.StatusOK, body)
}
