package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/quiz"
	"github.com/stemsi/classhub-backend/internal/response"
	"github.com/stemsi/classhub-backend/internal/store"
	"github.com/stemsi/classhub-backend/internal/validator"
)

// QuizHandler manages quiz/question CRUD and the live-session lifecycle
// that sits on top of it. Session operations are thin wrappers over
// quiz.Engine — all state-machine logic lives there, not here.
type QuizHandler struct {
	store  store.Store
	engine *quiz.Engine
}

func NewQuizHandler(st store.Store, engine *quiz.Engine) *QuizHandler {
	return &QuizHandler{store: st, engine: engine}
}

// CreateQuiz godoc
// POST /api/v1/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req model.CreateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q, err := h.store.CreateQuiz(c.Request.Context(), tenantIdentity(c), req)
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, q)
}

// GetQuiz godoc
// GET /api/v1/quizzes/:quizID
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	q, err := h.store.GetQuiz(c.Request.Context(), tenantIdentity(c), c.Param("quizID"))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// UpdateQuiz godoc
// PATCH /api/v1/quizzes/:quizID
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	var req model.UpdateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q, err := h.store.UpdateQuiz(c.Request.Context(), tenantIdentity(c), c.Param("quizID"), req)
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// ListQuizzes godoc
// GET /api/v1/quizzes
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.store.ListQuizzes(c.Request.Context(), tenantIdentity(c))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, quizzes)
}

// AddQuestion godoc
// POST /api/v1/quizzes/:quizID/questions
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q, err := h.store.AddQuestion(c.Request.Context(), tenantIdentity(c), c.Param("quizID"), req)
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, q)
}

// ListQuestions godoc
// GET /api/v1/quizzes/:quizID/questions
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	questions, err := h.store.ListQuestions(c.Request.Context(), tenantIdentity(c), c.Param("quizID"))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// --- live session lifecycle (wraps quiz.Engine) ---

// CreateSession godoc
// POST /api/v1/quizzes/:quizID/sessions
func (h *QuizHandler) CreateSession(c *gin.Context) {
	sess, err := h.engine.CreateSession(c.Request.Context(), tenantIdentity(c), c.Param("quizID"))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sess)
}

// StartSession godoc
// POST /api/v1/sessions/:sessionID/start
func (h *QuizHandler) StartSession(c *gin.Context) {
	sess, err := h.engine.Start(c.Request.Context(), tenantIdentity(c), c.Param("sessionID"))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sess)
}

// AdvanceSession godoc
// POST /api/v1/sessions/:sessionID/advance
func (h *QuizHandler) AdvanceSession(c *gin.Context) {
	sess, err := h.engine.Advance(c.Request.Context(), tenantIdentity(c), c.Param("sessionID"))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sess)
}

// EndSession godoc
// POST /api/v1/sessions/:sessionID/end
func (h *QuizHandler) EndSession(c *gin.Context) {
	sess, err := h.engine.End(c.Request.Context(), tenantIdentity(c), c.Param("sessionID"), model.EndReasonHost)
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sess)
}

// Leaderboard godoc
// GET /api/v1/sessions/:sessionID/leaderboard?limit=10
func (h *QuizHandler) Leaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	board, err := h.engine.Leaderboard(c.Request.Context(), c.Param("sessionID"), limit)
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, board)
}

// Analytics godoc
// GET /api/v1/sessions/:sessionID/analytics
func (h *QuizHandler) Analytics(c *gin.Context) {
	stats, err := h.engine.Analytics(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
