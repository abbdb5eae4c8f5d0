package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teleinformatics/campus-core/internal/auth"
)

const bearerPrefix = "Bearer "

// SubjectExtractor verifies a token and returns its subject.
// *auth.Codec satisfies it.
type SubjectExtractor interface {
	Subject(token string) (string, error)
}

// PrincipalResolver loads the current principal for an identity id.
// *auth.Authenticator satisfies it.
type PrincipalResolver interface {
	ResolveByID(ctx context.Context, id string) (*auth.Principal, error)
}

// Gate establishes the request principal from a bearer token.
//
// Requests without a bearer credential pass through anonymously. A
// presented token that is expired, invalid, or names an identity that no
// longer authenticates is rejected through the Responder and the request
// goes no further.
type Gate struct {
	tokens    SubjectExtractor
	resolver  PrincipalResolver
	responder *Responder
	events    auth.EventSink
	logger    *slog.Logger
	now       func() time.Time
}

// NewGate creates a gate. events may be nil.
func NewGate(tokens SubjectExtractor, resolver PrincipalResolver, responder *Responder, events auth.EventSink, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		tokens:    tokens,
		resolver:  resolver,
		responder: responder,
		events:    events,
		logger:    logger,
		now:       responder.now,
	}
}

// Middleware runs the gate before next.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := g.tokens.Subject(token)
		if err == nil {
			if _, perr := uuid.Parse(subject); perr != nil {
				err = auth.ErrTokenMalformed
			}
		}
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			g.reject(w, r, "", auth.ReasonTokenExpired, msgTokenExpired)
			return
		case err != nil:
			g.reject(w, r, "", auth.ReasonTokenInvalid, msgTokenInvalid)
			return
		}

		if _, established := auth.PrincipalFromContext(r.Context()); established {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := g.resolver.ResolveByID(r.Context(), subject)
		switch {
		case errors.Is(err, auth.ErrPrincipalNotFound):
			g.reject(w, r, subject, auth.ReasonPrincipalGone, msgInvalidCredentials)
			return
		case errors.Is(err, auth.ErrIdentityDisabled):
			g.reject(w, r, subject, auth.ReasonDisabled, msgInvalidCredentials)
			return
		case err != nil:
			g.logger.Error("resolving principal failed", "identity_id", subject, "error", err)
			writeJSON(w, http.StatusInternalServerError,
				newErrorResponse(r, http.StatusInternalServerError, CodeInternal, msgInternal, g.now()))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// reject answers 401 without touching the request context, so no partial
// principal survives a rejection.
func (g *Gate) reject(w http.ResponseWriter, r *http.Request, identityID, reason, message string) {
	g.logger.Info("token rejected",
		"reason", reason,
		"path", r.URL.Path,
		"identity_id", identityID,
	)
	if g.events != nil {
		g.events.Record(r.Context(), auth.Event{
			Kind:       auth.EventTokenRejected,
			IdentityID: identityID,
			Reason:     reason,
			RemoteAddr: auth.ClientAddrFromContext(r.Context()),
			At:         g.now().UTC(),
		})
	}
	g.responder.Unauthorized(w, r, message)
}

// bearerToken returns the credential after a "Bearer " prefix. The scheme
// name is matched case-insensitively. ok is false when no bearer
// credential is present.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}

// requireAuthenticated rejects anonymous requests.
func (s *Server) requireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
			s.responder.Unauthorized(w, r, msgAuthRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requirePermission rejects requests whose principal lacks perm. It must
// run after requireAuthenticated.
func (s *Server) requirePermission(perm auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				s.responder.Unauthorized(w, r, msgAuthRequired)
				return
			}
			if !p.HasPermission(perm) {
				s.writeForbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
