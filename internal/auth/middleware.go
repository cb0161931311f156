package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/adspilot/metads-assistant/internal/pkg/httputil"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// CurrentUser returns the authenticated user from the request context, or
// nil when the request did not pass through RequireAuth.
func CurrentUser(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// WithUser returns a context carrying the given user. Handler tests use
// this to skip the middleware.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// RequireAuth guards a route group with bearer authentication. The token
// is verified locally and the user is loaded from Supabase so handlers
// always see current Meta credentials.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.Unauthorized(w, "missing bearer token")
			return
		}

		if s.config.DevBypassEnabled && s.config.DevBypassToken != "" && raw == s.config.DevBypassToken {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), devUser())))
			return
		}

		userID, err := s.VerifyToken(raw)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.Unauthorized(w, "could not validate credentials")
			return
		}

		user, err := s.UserByID(r.Context(), userID)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.Unauthorized(w, "user not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func devUser() *User {
	return &User{
		ID:       "dev-user",
		Email:    "dev@localhost",
		Role:     "admin",
		IsActive: true,
	}
}
