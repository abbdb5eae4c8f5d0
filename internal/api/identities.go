package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teleinformatics/campus-core/internal/auth"
)

type updateIdentityRequest struct {
	Enabled *bool `json:"enabled"`
}

type grantRoleRequest struct {
	Role auth.Role `json:"role"`
}

// handleGetIdentity returns one identity.
func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	if !s.identitiesConfigured(w, r) {
		return
	}

	identity, err := s.identities.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeIdentityError(w, r, "get identity failed", err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// handleUpdateIdentity enables or disables an identity. A disabled
// identity can no longer log in and its outstanding tokens stop working.
func (s *Server) handleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	if !s.identitiesConfigured(w, r) {
		return
	}

	var req updateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, r, "invalid JSON body")
		return
	}
	if req.Enabled == nil {
		s.writeBadRequest(w, r, "enabled is required")
		return
	}

	id := chi.URLParam(r, "id")
	if p, _ := auth.PrincipalFromContext(r.Context()); p != nil && p.ID == id && !*req.Enabled {
		s.writeBadRequest(w, r, "cannot disable your own identity")
		return
	}

	if err := s.identities.SetEnabled(r.Context(), id, *req.Enabled); err != nil {
		s.writeIdentityError(w, r, "update identity failed", err)
		return
	}
	s.logger.Info("identity updated", "id", id, "enabled", *req.Enabled)

	s.writeIdentity(w, r, id)
}

// handleGrantRole adds a role to an identity.
func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	if !s.identitiesConfigured(w, r) {
		return
	}

	var req grantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, r, "invalid JSON body")
		return
	}
	if !req.Role.IsValid() {
		s.writeBadRequest(w, r, "role must be one of STUDENT, TEACHER, COORDINATOR, ADMIN")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.identities.GrantRole(r.Context(), id, req.Role); err != nil {
		s.writeIdentityError(w, r, "grant role failed", err)
		return
	}
	s.logger.Info("role granted", "id", id, "role", req.Role)

	s.writeIdentity(w, r, id)
}

// handleDeleteIdentity removes an identity. Its tokens are rejected from
// the next request on.
func (s *Server) handleDeleteIdentity(w http.ResponseWriter, r *http.Request) {
	if !s.identitiesConfigured(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	if p, _ := auth.PrincipalFromContext(r.Context()); p != nil && p.ID == id {
		s.writeBadRequest(w, r, "cannot delete your own identity")
		return
	}

	if err := s.identities.Delete(r.Context(), id); err != nil {
		s.writeIdentityError(w, r, "delete identity failed", err)
		return
	}
	s.logger.Info("identity deleted", "id", id)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) identitiesConfigured(w http.ResponseWriter, r *http.Request) bool {
	if s.identities == nil {
		s.logger.Error("identity administration requested but not configured")
		s.writeInternalError(w, r)
		return false
	}
	return true
}

func (s *Server) writeIdentity(w http.ResponseWriter, r *http.Request, id string) {
	identity, err := s.identities.FindByID(r.Context(), id)
	if err != nil {
		s.writeIdentityError(w, r, "reload identity failed", err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (s *Server) writeIdentityError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, auth.ErrIdentityNotFound):
		s.writeNotFound(w, r, "identity not found")
	case errors.Is(err, auth.ErrRoleNotFound):
		s.writeBadRequest(w, r, "role not found")
	default:
		s.logger.Error(msg, "error", err)
		s.writeInternalError(w, r)
	}
}
