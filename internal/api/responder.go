package api

import (
	"net/http"
	"time"
)

// Responder turns any authentication failure reaching the request
// boundary into a 401 AUTH_FAILED response carrying message.
type Responder struct {
	now func() time.Time
}

// NewResponder creates a responder stamping responses with now.
func NewResponder(now func() time.Time) *Responder {
	if now == nil {
		now = time.Now
	}
	return &Responder{now: now}
}

// Unauthorized writes the rejection. It does not inspect the failure kind;
// the caller chooses the message.
func (rs *Responder) Unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="campus-core"`)
	writeJSON(w, http.StatusUnauthorized,
		newErrorResponse(r, http.StatusUnauthorized, CodeAuthFailed, message, rs.now()))
}
