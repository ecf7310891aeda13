package api

import (
	"net/http"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token              string `json:"token"`
	MustChangePassword bool   `json:"must_change_password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.store.UserByUsername(r.Context(), s.store.DB(), req.Username)
	if err != nil {
		s.writeError(w, r, apperr.Unauthorised("invalid credentials"))
		return
	}
	if !u.Active || !auth.VerifyPassword(u.PasswordHash, req.Password) {
		s.writeError(w, r, apperr.Unauthorised("invalid credentials"))
		return
	}
	token, err := s.issuer.IssueToken(u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, MustChangePassword: u.MustChangePassword})
}

type completeFirstLoginRequest struct {
	UserID      int64  `json:"user_id"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleCompleteFirstLogin(w http.ResponseWriter, r *http.Request) {
	var req completeFirstLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.admin.CompleteFirstLogin(r.Context(), req.UserID, hash); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
