package handlers

import (
	"net/http"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/api/auth"
	"github.com/datalakehq/catalogd/pkg/api/middleware"
	"github.com/datalakehq/catalogd/pkg/catalog/store"
)

// AuthHandler handles authentication-related API endpoints.
type AuthHandler struct {
	store      *store.GORMStore
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.GORMStore, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{store: st, jwtService: jwtService}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
//
// The tenant is named by the API key header; the body carries the user
// credentials. A valid pair yields an access/refresh token pair scoped to
// the tenant.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.jwtService == nil {
		Unauthorized(w, "token authentication is not configured")
		return
	}

	apiKey := r.Header.Get(middleware.HeaderAPIKey)
	if apiKey == "" {
		Unauthorized(w, "tenant API key required")
		return
	}
	tenant, err := h.store.GetTenantByAPIKey(r.Context(), apiKey)
	if err != nil {
		Unauthorized(w, "invalid tenant API key")
		return
	}

	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		BadRequest(w, "username and password are required")
		return
	}

	user, err := h.store.ValidateCredentials(r.Context(), tenant.ID, req.Username, req.Password)
	if err != nil {
		logger.WarnCtx(r.Context(), "login rejected",
			logger.TenantID(tenant.ID), logger.Username(req.Username))
		Unauthorized(w, "invalid credentials")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "failed to issue tokens")
		return
	}

	logger.InfoCtx(r.Context(), "user logged in",
		logger.TenantID(tenant.ID), logger.Username(user.Username))
	WriteJSONOK(w, pair)
}

// RefreshRequest is the request body for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/v1/auth/refresh.
//
// A valid refresh token yields a fresh token pair for the same user. The
// user is re-read so revoked accounts stop refreshing immediately.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.jwtService == nil {
		Unauthorized(w, "token authentication is not configured")
		return
	}

	var req RefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		Unauthorized(w, "invalid refresh token")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil || user.TenantID != claims.TenantID {
		Unauthorized(w, "user no longer exists")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "failed to issue tokens")
		return
	}

	WriteJSONOK(w, pair)
}
