package middleware

import (
	"net/http"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
	"github.com/rogerio-castellano/stockroom/internal/http/handlers"
	"github.com/rogerio-castellano/stockroom/internal/logger"
)

type GateChecker interface {
	Unlocked() bool
}

// RequireUnlocked rejects requests with 401 LOCKED while the gate is closed.
func RequireUnlocked(gate GateChecker, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Unlocked() {
				handlers.WriteError(w, r, log, apperrors.New(apperrors.CodeLocked, "inventory is locked"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
