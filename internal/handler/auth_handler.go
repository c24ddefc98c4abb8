package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/middleware"
	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/response"
	"github.com/stemsi/classhub-backend/internal/service"
	"github.com/stemsi/classhub-backend/internal/validator"
)

// AuthHandler handles tenant (teacher) registration and login — the thin
// AuthN collaborator spec.md places out of core scope.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.TenantRegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	tenant, err := h.authService.Store.CreateTenant(c.Request.Context(), req.Email, hash)
	if err != nil {
		response.FailFromError(c, err)
		return
	}

	token, err := h.authService.GenerateTenantToken(tenant.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token":  token,
		"tenant": gin.H{"id": tenant.ID, "email": tenant.Email},
	})
}

// Login godoc
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.TenantLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tenant, err := h.authService.Store.GetTenantByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.FailFromError(c, err)
		return
	}

	if err := h.authService.CheckPassword(tenant.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateTenantToken(tenant.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":  token,
		"tenant": gin.H{"id": tenant.ID, "email": tenant.Email},
	})
}

// Me godoc
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tenant_id": claims.TenantID})
}
