package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/clubhive/clubhive/pkg/logger"
	"github.com/clubhive/clubhive/pkg/response"
	"github.com/clubhive/clubhive/pkg/session"
	"github.com/golang-jwt/jwt/v5"
)

// SessionGetter is the read side of session.Store.
type SessionGetter interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// RequireSession authenticates the bearer app token, loads its session and
// enforces role. An empty role admits any signed-in user; admins pass every check.
func RequireSession(secret string, sessions SessionGetter, role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}

			claims, err := auth.Parse(token, secret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					response.WriteError(w, http.StatusUnauthorized, "Token expired", response.CodeExpiredToken)
					return
				}
				response.WriteError(w, http.StatusUnauthorized, "Invalid token", response.CodeInvalidToken)
				return
			}

			s, err := sessions.Get(r.Context(), claims.Sid)
			if err != nil {
				logger.ErrorContext(r.Context(), "Session lookup failed", "error", err)
				response.InternalError(w, "Failed to load session")
				return
			}
			if s == nil || s.UserID() != claims.Sub {
				response.WriteError(w, http.StatusUnauthorized, "Session has ended", response.CodeSessionEnded)
				return
			}

			if role != "" && s.Role() != role && s.Role() != auth.RoleAdmin {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, s.UserID())
			ctx = session.NewContext(ctx, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter that browsers use for WebSocket upgrades.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
