// Package middleware provides HTTP middleware for the catalogd API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/api/auth"
	"github.com/datalakehq/catalogd/pkg/catalog/service"
	"github.com/datalakehq/catalogd/pkg/catalog/store"
)

// Request headers carrying API key credentials.
const (
	// HeaderAPIKey carries the tenant API key.
	HeaderAPIKey = "X-Api-Key"

	// HeaderUserKey carries the per-user catalog key.
	HeaderUserKey = "X-User-Key"
)

// Context key type for storing the resolved identity.
type contextKey string

const identityContextKey contextKey = "identity"

// GetIdentity retrieves the caller identity from the request context.
//
// This function should only be called in handler code running after the
// Authenticate middleware; without it the second return value is false.
func GetIdentity(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(service.Identity)
	return id, ok
}

// extractBearerToken extracts the token from a Bearer Authorization header.
func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// Authenticate resolves the caller to a tenant identity and stores it in
// the request context. Two credential forms are accepted: a Bearer access
// token, or the tenant API key plus user key header pair. Requests that
// resolve to no valid identity receive 401.
func Authenticate(jwtService *auth.JWTService, st *store.GORMStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, ok := resolveIdentity(ctx, jwtService, st, r)
			if !ok {
				http.Error(w, "valid credentials required", http.StatusUnauthorized)
				return
			}

			lc := logger.FromContext(ctx)
			if lc == nil {
				lc = logger.NewLogContext(r.RemoteAddr)
			}
			ctx = logger.WithContext(ctx, lc.WithIdentity(id.Tenant.ID, id.User.ID))
			ctx = context.WithValue(ctx, identityContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveIdentity(ctx context.Context, jwtService *auth.JWTService, st *store.GORMStore, r *http.Request) (service.Identity, bool) {
	if token, ok := extractBearerToken(r); ok {
		if jwtService == nil {
			return service.Identity{}, false
		}
		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			return service.Identity{}, false
		}
		tenant, err := st.GetTenant(ctx, claims.TenantID)
		if err != nil {
			return service.Identity{}, false
		}
		user, err := st.GetUserByID(ctx, claims.UserID)
		if err != nil || user.TenantID != tenant.ID {
			return service.Identity{}, false
		}
		return service.Identity{Tenant: tenant, User: user}, true
	}

	apiKey := r.Header.Get(HeaderAPIKey)
	userKey := r.Header.Get(HeaderUserKey)
	if apiKey == "" || userKey == "" {
		return service.Identity{}, false
	}
	tenant, err := st.GetTenantByAPIKey(ctx, apiKey)
	if err != nil {
		return service.Identity{}, false
	}
	user, err := st.GetUserByKey(ctx, userKey)
	if err != nil || user.TenantID != tenant.ID {
		return service.Identity{}, false
	}
	return service.Identity{Tenant: tenant, User: user}, true
}
