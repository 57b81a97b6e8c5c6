package handlers

import (
	"net/http"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
)

// UnlockHandler godoc
// @Summary Unlock the inventory
// @Description Opens the shared gate when the passphrase matches
// @Tags gate
// @Accept json
// @Produce json
// @Param credentials body UnlockRequest true "Passphrase"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /unlock [post]
func (s *Server) UnlockHandler(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := readJSON(w, r, &req); err != nil {
		s.badRequest(w, r, "invalid input")
		return
	}

	if !s.svc.TryUnlock(r.Context(), req.Passphrase) {
		s.fail(w, r, apperrors.New(apperrors.CodeAuthRejected, "invalid passphrase"))
		return
	}
	s.StatusHandler(w, r)
}

// LockHandler godoc
// @Summary Lock the inventory
// @Tags gate
// @Success 204 "No Content"
// @Router /lock [post]
func (s *Server) LockHandler(w http.ResponseWriter, r *http.Request) {
	s.svc.Lock(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// StatusHandler godoc
// @Summary Gate state
// @Tags gate
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /status [get]
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	unlocked := s.svc.Unlocked()
	state := "locked"
	if unlocked {
		state = "unlocked"
	}
	_ = writeJSON(w, http.StatusOK, StatusResponse{State: state, Unlocked: unlocked})
}
