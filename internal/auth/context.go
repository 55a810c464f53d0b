package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type ctxKey string

const operatorKey ctxKey = "operator"

// Operator identifies the authenticated user of a request.
type Operator struct {
	UserID int64
	Role   string
}

func WithOperator(ctx context.Context, op Operator) context.Context {
	return context.WithValue(ctx, operatorKey, op)
}

// OperatorFrom returns the operator stored by Middleware.
func OperatorFrom(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorKey).(Operator)
	return op, ok
}

// Middleware rejects requests without a valid bearer token. onError writes
// the failure response so callers keep a single error format.
func (s *Service) Middleware(onError func(w http.ResponseWriter, status int, message string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				onError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := s.ParseToken(strings.TrimSpace(header[len("Bearer "):]))
			if err != nil {
				onError(w, http.StatusUnauthorized, err.Error())
				return
			}
			// Deactivation and role changes apply before the token expires.
			role, err := s.activeRole(r.Context(), claims.UserID)
			if errors.Is(err, ErrInvalidToken) {
				onError(w, http.StatusUnauthorized, err.Error())
				return
			}
			if err != nil {
				s.logger.Error("auth lookup failed", slog.Int64("user_id", claims.UserID), slog.Any("error", err))
				onError(w, http.StatusInternalServerError, "internal error")
				return
			}
			ctx := WithOperator(r.Context(), Operator{UserID: claims.UserID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
