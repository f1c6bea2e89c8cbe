package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/parleychat/parley/internal/domain"
	"github.com/parleychat/parley/internal/service"
)

type contextKey string

const userKey contextKey = "user"

// Auth resolves the bearer token to a live user and stores the user in the
// request context. Protected routes and the realtime handshake share the same
// gate, so a token for a deleted account fails everywhere at once.
func Auth(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ""
			if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
				tokenStr = strings.TrimPrefix(header, "Bearer ")
			}

			user, err := auth.ResolveToken(r.Context(), tokenStr)
			if err != nil {
				status := http.StatusUnauthorized
				if domain.KindOf(err) != domain.KindAuth {
					status = http.StatusInternalServerError
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":    domain.CodeOf(err),
						"message": domain.MessageOf(err),
					},
				})
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the authenticated user from the request context. Only
// valid behind Auth.
func GetUser(ctx context.Context) *domain.User {
	return ctx.Value(userKey).(*domain.User)
}

// GetUserID extracts the authenticated user's ID from the request context.
func GetUserID(ctx context.Context) uuid.UUID {
	return GetUser(ctx).ID
}
