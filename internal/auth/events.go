package auth

import (
	"context"
	"time"
)

// EventKind names an authentication outcome worth recording.
type EventKind string

// Event kinds.
const (
	EventRegistered       EventKind = "registered"
	EventRegisterConflict EventKind = "register_conflict"
	EventLoginSucceeded   EventKind = "login"
	EventLoginFailed      EventKind = "login_failed"
	EventTokenRejected    EventKind = "token_rejected"
)

// Rejection and failure reasons carried on events. They are internal
// diagnostics and never sent to the caller.
const (
	ReasonUnknownEmail  = "unknown_email"
	ReasonBadPassword   = "bad_password"
	ReasonDisabled      = "disabled"
	ReasonDuplicate     = "duplicate"
	ReasonTokenExpired  = "expired"
	ReasonTokenInvalid  = "invalid"
	ReasonPrincipalGone = "not_found"
)

// Event is one authentication outcome.
type Event struct {
	Kind       EventKind `json:"kind"`
	IdentityID string    `json:"identity_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	At         time.Time `json:"at"`
}

// EventSink receives authentication events. Implementations must not
// block the caller for long and must not fail the authentication decision.
type EventSink interface {
	Record(ctx context.Context, ev Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, ev Event)

// Record calls f.
func (f EventSinkFunc) Record(ctx context.Context, ev Event) {
	f(ctx, ev)
}

type nopSink struct{}

func (nopSink) Record(context.Context, Event) {}
