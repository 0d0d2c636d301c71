package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/happythoughts/apiserver/internal/auth"
	"go.uber.org/zap"
)

const msgLoggedOut = "User logged out"

// RequireAuth gates op behind the access token carried in the
// Authorization header. Operations the policy leaves open pass through
// without a lookup.
func RequireAuth(gate *auth.Gate, op auth.Operation, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Requires(op) {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := gate.Authenticate(r.Context(), accessToken(r))
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					writeError(w, http.StatusUnauthorized, msgLoggedOut)
					return
				}
				logger.Error("authenticate request", zap.Error(err))
				writeError(w, http.StatusInternalServerError, msgInternal)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accessToken returns the raw token from the Authorization header. A
// "Bearer " prefix is accepted and stripped.
func accessToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}
