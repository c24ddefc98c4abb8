package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/stemsi/classhub-backend/internal/grading"
	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/response"
	"github.com/stemsi/classhub-backend/internal/store"
	"github.com/stemsi/classhub-backend/internal/validator"
	"github.com/stemsi/classhub-backend/internal/worker"
)

// AssessmentHandler creates bulk-grading jobs and exposes their results
// for review; the actual grading runs out of process in a GradingWorker
// that drains the queue this handler pushes onto. Phase 5's teacher
// override is applied synchronously through the same Pipeline instance
// the worker uses, since it is a fast, single-row operation unlike the
// bulk fan-out the queue exists to defer.
type AssessmentHandler struct {
	store    store.Store
	pipeline *grading.Pipeline
	rdb      *redis.Client
}

func NewAssessmentHandler(st store.Store, pipeline *grading.Pipeline, rdb *redis.Client) *AssessmentHandler {
	return &AssessmentHandler{store: st, pipeline: pipeline, rdb: rdb}
}

type createAssessmentRequest struct {
	Config     model.AssessmentConfig   `json:"config" binding:"required"`
	Files      []model.AnswerSheetFile `json:"files"`
	TotalPages int                      `json:"total_pages"`
}

// CreateAssessment godoc
// POST /api/v1/assessments
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req createAssessmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	id := tenantIdentity(c)
	assessment, err := h.store.CreateAssessment(c.Request.Context(), id, req.Config, req.Files, req.TotalPages)
	if err != nil {
		response.FailFromError(c, err)
		return
	}

	if err := worker.Enqueue(c.Request.Context(), h.rdb, id.TenantID, assessment.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, assessment)
}

// GetAssessment godoc
// GET /api/v1/assessments/:assessmentID
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	assessment, err := h.store.GetAssessment(c.Request.Context(), tenantIdentity(c), c.Param("assessmentID"))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, assessment)
}

// ListResults godoc
// GET /api/v1/assessments/:assessmentID/results
func (h *AssessmentHandler) ListResults(c *gin.Context) {
	// ListResultsByAssessment is tenant-agnostic at the Store layer (it
	// scopes by assessment id, which GetAssessment above already proved
	// belongs to this tenant); re-verify ownership first so a guessed
	// assessment id from another tenant can't be enumerated.
	if _, err := h.store.GetAssessment(c.Request.Context(), tenantIdentity(c), c.Param("assessmentID")); err != nil {
		response.FailFromError(c, err)
		return
	}
	results, err := h.store.ListResultsByAssessment(c.Request.Context(), c.Param("assessmentID"))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, results)
}

type teacherEditRequest struct {
	Grade    float64 `json:"grade" binding:"required"`
	Feedback string  `json:"feedback"`
	MaxScore float64 `json:"max_score" binding:"required"`
}

// ApplyTeacherEdit godoc
// PATCH /api/v1/assessments/:assessmentID/results/:resultID
func (h *AssessmentHandler) ApplyTeacherEdit(c *gin.Context) {
	var req teacherEditRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	id := tenantIdentity(c)
	assessmentID := c.Param("assessmentID")
	if _, err := h.store.GetAssessment(c.Request.Context(), id, assessmentID); err != nil {
		response.FailFromError(c, err)
		return
	}
	if err := h.pipeline.ApplyTeacherEdit(c.Request.Context(), id, assessmentID, c.Param("resultID"), req.Grade, req.Feedback, req.MaxScore); err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "applied"})
}
