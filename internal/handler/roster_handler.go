package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/middleware"
	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/response"
	"github.com/stemsi/classhub-backend/internal/store"
	"github.com/stemsi/classhub-backend/internal/validator"
)

// RosterHandler manages a tenant's classes and students.
type RosterHandler struct {
	store store.Store
}

func NewRosterHandler(st store.Store) *RosterHandler {
	return &RosterHandler{store: st}
}

func tenantIdentity(c *gin.Context) identity.Context {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return identity.Public
	}
	return identity.Context{TenantID: claims.TenantID}
}

type createClassRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// CreateClass godoc
// POST /api/v1/classes
func (h *RosterHandler) CreateClass(c *gin.Context) {
	var req createClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	class, err := h.store.CreateClass(c.Request.Context(), tenantIdentity(c), req.Name, req.Description)
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, class)
}

// ListClasses godoc
// GET /api/v1/classes
func (h *RosterHandler) ListClasses(c *gin.Context) {
	classes, err := h.store.ListClasses(c.Request.Context(), tenantIdentity(c))
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, classes)
}

// CreateStudent godoc
// POST /api/v1/students
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	student, err := h.store.CreateStudent(c.Request.Context(), tenantIdentity(c), req)
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, student)
}

// AddStudentToClass godoc
// POST /api/v1/classes/:classID/students/:studentID
func (h *RosterHandler) AddStudentToClass(c *gin.Context) {
	classID := c.Param("classID")
	studentID := c.Param("studentID")
	if err := h.store.AddStudentToClass(c.Request.Context(), tenantIdentity(c), studentID, classID); err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"class_id": classID, "student_id": studentID})
}

// ListStudentsByClass godoc
// GET /api/v1/classes/:classID/students
func (h *RosterHandler) ListStudentsByClass(c *gin.Context) {
	classID := c.Param("classID")
	students, err := h.store.ListStudentsByClass(c.Request.Context(), tenantIdentity(c), classID)
	if err != nil {
		response.FailFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, students)
}
