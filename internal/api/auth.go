package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/teleinformatics/campus-core/internal/auth"
)

// ─── Request/Response Types ────────────────────────────────────────

// authResponse is returned by register and login.
type authResponse struct {
	IdentityID string `json:"identity_id"`
	Token      string `json:"token"`
}

// ─── Handlers ──────────────────────────────────────────────────────

// handleRegister creates an identity with the default role and returns a
// token for it.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	res, err := s.credentials.Register(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrDuplicateIdentity):
		s.writeError(w, r, http.StatusConflict, CodeUserExists, msgUserExists)
		return
	case errors.Is(err, auth.ErrRoleMissing):
		s.logger.Error("registration failed: server misconfigured", "error", err)
		s.writeInternalError(w, r)
		return
	case err != nil:
		s.logger.Error("registration failed", "error", err)
		s.writeInternalError(w, r)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{IdentityID: res.IdentityID, Token: res.Token})
}

// handleLogin verifies credentials and returns a token carrying the
// identity's current roles.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	res, err := s.credentials.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.responder.Unauthorized(w, r, msgInvalidCredentials)
		return
	case err != nil:
		s.logger.Error("login failed", "error", err)
		s.writeInternalError(w, r)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{IdentityID: res.IdentityID, Token: res.Token})
}

// handleMe returns the request principal.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, r, "invalid JSON body")
		return req, false
	}
	if err := req.normalize(); err != nil {
		s.writeBadRequest(w, r, err.Error())
		return req, false
	}
	return req, true
}
