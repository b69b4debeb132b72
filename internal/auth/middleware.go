package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-invoice/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	ParseAccessToken(token string) (string, error)
}

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Service TokenParser
}

// RequireAuth enforces that a valid token is present before executing the next handler.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err != nil {
			var appErr *common.AppError
			if errors.As(err, &appErr) {
				common.WriteError(w, appErr)
				return
			}
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) authenticateRequest(r *http.Request) (context.Context, error) {
	if m.Service == nil {
		return r.Context(), errors.New("auth: service not configured")
	}
	token := extractToken(r)
	if token == "" {
		return r.Context(), errNoToken
	}
	userID, err := m.Service.ParseAccessToken(token)
	if err != nil {
		return r.Context(), err
	}
	return common.WithUserID(r.Context(), userID), nil
}

func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
