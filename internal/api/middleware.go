package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pesaflow/sacco-api/internal/auth"
	"github.com/pesaflow/sacco-api/internal/models"
	"github.com/pesaflow/sacco-api/internal/store"
)

type contextKey string

const contextKeyUser contextKey = "user"

// AuthMiddleware validates bearer tokens and attaches the caller's
// user record to the request context. Tokens issued before the user's
// last password change are rejected.
func AuthMiddleware(tokens *auth.Manager, st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format")
				return
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			user, err := st.GetUser(claims.Subject)
			if err != nil {
				if err == store.ErrNotFound {
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "User no longer exists")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to load user")
				return
			}

			if !user.IsActive {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "User account is deactivated")
				return
			}

			// iat has second precision, so compare at second precision:
			// a token issued in the same second as the change stays valid.
			if claims.IssuedAt != nil && user.PasswordChangedAt.Truncate(time.Second).After(claims.IssuedAt.Time) {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Password recently changed, please log in again")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFrom returns the authenticated user attached by AuthMiddleware.
func userFrom(r *http.Request) *models.User {
	user, _ := r.Context().Value(contextKeyUser).(*models.User)
	return user
}

// AdminOnly rejects callers without the admin role.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)
		if user == nil || user.Role != models.RoleAdmin {
			writeJSONError(w, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RestrictToOwner allows admins, or callers whose member number matches
// the given URL parameter.
func RestrictToOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := userFrom(r)
			if user == nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if user.Role != models.RoleAdmin &&
				user.MemberNumber != models.NormalizeMemberNumber(chi.URLParam(r, param)) {
				writeJSONError(w, http.StatusForbidden, "forbidden", "You can only access your own data")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
