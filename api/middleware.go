/*
middleware.go - JWT authentication middleware

PURPOSE:
  Gates route groups by role. Tokens arrive as "Authorization: Bearer
  <token>"; validated claims are placed on the request context for
  handlers to read.

ROLE GATING:
  requireRole(RoleEmployee) and requireRole(RoleAdmin) protect the two
  dashboards. A valid token with the wrong role is a 403, a missing or
  invalid token a 401.
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/nivesh/pension-engine/auth"
)

// contextKey is a private type so context values cannot collide.
type contextKey string

const claimsKey contextKey = "auth_claims"

// ClaimsFrom extracts the authenticated claims from the request context.
// Returns nil on unauthenticated requests.
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// requireRole validates the bearer token and enforces the expected role.
func (h *Handler) requireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error(), nil)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error(), nil)
				return
			}

			claims, err := h.Tokens.Validate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error(), nil)
				return
			}
			if claims.Role != role {
				writeError(w, http.StatusForbidden, "insufficient permissions", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
