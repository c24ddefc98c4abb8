package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/stemsi/classhub-backend/internal/config"
	"github.com/stemsi/classhub-backend/internal/store"
)

// Common auth errors.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims is the JWT payload for an authenticated tenant (host). This is
// the thin AuthN collaborator spec.md places out of core scope — it only
// produces the verified tenant id the core's IdentityContext carries.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
}

// AuthService issues and validates tenant JWTs, hashes tenant passwords,
// and exposes the tenant-account rows the handler layer needs for
// registration/login. Store is embedded directly rather than duplicated
// behind another thin wrapper — auth has no business logic of its own
// beyond the account lookup.
type AuthService struct {
	cfg   *config.Config
	Store store.Store
}

func NewAuthService(cfg *config.Config, st store.Store) *AuthService {
	return &AuthService{cfg: cfg, Store: st}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateTenantToken creates a JWT carrying the tenant's id.
func (s *AuthService) GenerateTenantToken(tenantID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   tenantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TenantID: tenantID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and validates a tenant JWT.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
