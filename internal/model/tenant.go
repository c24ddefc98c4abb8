package model

import "time"

// Tenant is the owner principal of all user-scoped entities — a teacher
// account. Created once; never orphaned.
type Tenant struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// TenantRegisterRequest is the payload for creating a new teacher account.
type TenantRegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// TenantLoginRequest is the payload for exchanging credentials for a JWT.
type TenantLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
