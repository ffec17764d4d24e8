package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "vouch/pkg/domain"
)

// TokenValidator validates bearer tokens and returns the caller claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims carries the identity we expect from the token validator.
type TokenClaims struct {
	Address id.Address
}

type contextKeyCaller struct{}

// GetCaller retrieves the authenticated caller address from the context.
// Zero when the request was not authenticated.
func GetCaller(ctx context.Context) id.Address {
	if addr, ok := ctx.Value(contextKeyCaller{}).(id.Address); ok {
		return addr
	}
	return ""
}

// WithCaller injects a caller address into a context. Useful for service and
// handler tests that don't run the full middleware chain.
func WithCaller(ctx context.Context, addr id.Address) context.Context {
	return context.WithValue(ctx, contextKeyCaller{}, addr)
}

// RequireAuth validates the Authorization bearer token and stores the caller
// address in the request context. Requests without a valid token get 401.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w)
				return
			}
			ctx := WithCaller(r.Context(), claims.Address)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
