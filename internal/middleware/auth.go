package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/colefleming/inkwell/internal/models"
	"github.com/colefleming/inkwell/internal/repo"
	"github.com/colefleming/inkwell/internal/token"
)

type ctxKey string

const userKey ctxKey = "user"

// UserFrom returns the authenticated user attached by Auth or OptionalAuth,
// or nil for an anonymous request.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// WithUser attaches a user to the context the same way Auth does.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func authError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// resolve verifies the bearer token and loads the matching user with the
// password hash stripped. Returns the HTTP status to fail with, or 0 and the
// user on success.
func resolve(r *http.Request, tokens *token.Service, users *repo.UserRepo) (*models.User, string, int) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, "missing or malformed authorization header", http.StatusUnauthorized
	}

	subjectID, ok := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
	if !ok {
		return nil, "invalid token", http.StatusUnauthorized
	}

	user, err := users.GetByID(r.Context(), subjectID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "user not found", http.StatusUnauthorized
		}
		slog.Error("auth: load user", "err", err)
		return nil, "internal server error", http.StatusInternalServerError
	}

	user.PasswordHash = ""
	return user, "", 0
}

// Auth gates a route: requests without a valid bearer token for an existing
// user are rejected. The resolved user is attached to the request context.
func Auth(tokens *token.Service, users *repo.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, msg, status := resolve(r, tokens, users)
			if status != 0 {
				authError(w, msg, status)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user when a bearer token is presented but lets
// anonymous requests through. A presented-but-invalid token is still
// rejected rather than silently downgraded to anonymous.
func OptionalAuth(tokens *token.Service, users *repo.UserRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, msg, status := resolve(r, tokens, users)
			if status != 0 {
				authError(w, msg, status)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
