package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// TokenIssuer signs tokens for authenticated identities.
type TokenIssuer interface {
	Issue(subject, email string, roles []string, now time.Time) (string, error)
}

// Result is returned by successful registration and login.
type Result struct {
	IdentityID string `json:"identity_id"`
	Token      string `json:"token"`
}

// Authenticator verifies credentials, provisions identities and resolves
// request principals. It holds no per-request state and is safe for
// concurrent use.
type Authenticator struct {
	store       CredentialStore
	roles       RoleCatalog
	hasher      PasswordHasher
	tokens      TokenIssuer
	defaultRole Role
	events      EventSink
	logger      *slog.Logger
	now         func() time.Time

	// dummyHash is verified against when the email is unknown so both
	// failure paths cost one hash verification.
	dummyHash string
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithDefaultRole sets the role assigned at registration. Default STUDENT.
func WithDefaultRole(r Role) Option {
	return func(a *Authenticator) { a.defaultRole = r }
}

// WithEvents sets the sink receiving authentication events.
func WithEvents(sink EventSink) Option {
	return func(a *Authenticator) { a.events = sink }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = l }
}

// WithNow replaces the clock used for token issuance and events.
func WithNow(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// NewAuthenticator wires an Authenticator from its collaborators.
func NewAuthenticator(store CredentialStore, roles RoleCatalog, hasher PasswordHasher, tokens TokenIssuer, opts ...Option) (*Authenticator, error) {
	a := &Authenticator{
		store:       store,
		roles:       roles,
		hasher:      hasher,
		tokens:      tokens,
		defaultRole: RoleStudent,
		events:      nopSink{},
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if !a.defaultRole.IsValid() {
		return nil, fmt.Errorf("%w: %q is not a known role", ErrRoleMissing, a.defaultRole)
	}

	dummy, err := hasher.Hash("campus-core-unknown-identity")
	if err != nil {
		return nil, fmt.Errorf("preparing dummy hash: %w", err)
	}
	a.dummyHash = dummy

	return a, nil
}

// DefaultRole returns the role assigned at registration.
func (a *Authenticator) DefaultRole() Role {
	return a.defaultRole
}

// CheckDefaultRole confirms the default role exists in the catalog.
// A miss is ErrRoleMissing, which callers treat as fatal at startup.
func (a *Authenticator) CheckDefaultRole(ctx context.Context) (*RoleInfo, error) {
	info, err := a.roles.Lookup(ctx, a.defaultRole)
	if errors.Is(err, ErrRoleNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoleMissing, a.defaultRole)
	}
	if err != nil {
		return nil, fmt.Errorf("checking default role: %w", err)
	}
	return info, nil
}

// Register creates an identity holding the default role and returns a
// token for it.
//
// Email uniqueness is decided by the store at insert time. A collision is
// ErrDuplicateIdentity. A missing default role is ErrRoleMissing and
// nothing is written.
func (a *Authenticator) Register(ctx context.Context, email, password string) (*Result, error) {
	role, err := a.CheckDefaultRole(ctx)
	if err != nil {
		if errors.Is(err, ErrRoleMissing) {
			a.logger.Error("registration aborted: default role missing", "role", a.defaultRole)
		}
		return nil, err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	identity := &Identity{
		Email:        email,
		PasswordHash: hash,
		Roles:        []Role{role.Name},
		Enabled:      true,
	}
	if err := a.store.Insert(ctx, identity); err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			a.emit(ctx, EventRegisterConflict, "", ReasonDuplicate)
			return nil, ErrDuplicateIdentity
		}
		if errors.Is(err, ErrRoleNotFound) {
			a.logger.Error("registration aborted: default role missing", "role", a.defaultRole)
			return nil, fmt.Errorf("%w: %w", ErrRoleMissing, err)
		}
		return nil, fmt.Errorf("storing identity: %w", err)
	}

	token, err := a.tokens.Issue(identity.ID, identity.Email, identity.RoleNames(), a.now())
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	a.logger.Info("identity registered", "id", identity.ID)
	a.emit(ctx, EventRegistered, identity.ID, "")

	return &Result{IdentityID: identity.ID, Token: token}, nil
}

// Login verifies email and password and returns a token carrying all of
// the identity's current roles.
//
// An unknown email, a wrong password and a disabled identity all return
// ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Result, error) {
	identity, err := a.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrIdentityNotFound) {
		a.hasher.Verify(password, a.dummyHash) //nolint:errcheck // equalises timing only
		a.emit(ctx, EventLoginFailed, "", ReasonUnknownEmail)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up identity: %w", err)
	}

	ok, err := a.hasher.Verify(password, identity.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password for %s: %w", identity.ID, err)
	}
	if !ok {
		a.emit(ctx, EventLoginFailed, identity.ID, ReasonBadPassword)
		return nil, ErrInvalidCredentials
	}

	if !identity.Enabled {
		a.emit(ctx, EventLoginFailed, identity.ID, ReasonDisabled)
		return nil, ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(identity.ID, identity.Email, identity.RoleNames(), a.now())
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	a.logger.Info("identity logged in", "id", identity.ID)
	a.emit(ctx, EventLoginSucceeded, identity.ID, "")

	return &Result{IdentityID: identity.ID, Token: token}, nil
}

// ResolveByID loads the current state of an identity named by a verified
// token. A deleted identity is ErrPrincipalNotFound and a disabled one is
// ErrIdentityDisabled.
func (a *Authenticator) ResolveByID(ctx context.Context, id string) (*Principal, error) {
	identity, err := a.store.FindByID(ctx, id)
	if errors.Is(err, ErrIdentityNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPrincipalNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving principal: %w", err)
	}
	if !identity.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrIdentityDisabled, id)
	}
	return NewPrincipal(identity), nil
}

func (a *Authenticator) emit(ctx context.Context, kind EventKind, identityID, reason string) {
	a.events.Record(ctx, Event{
		Kind:       kind,
		IdentityID: identityID,
		Reason:     reason,
		RemoteAddr: ClientAddrFromContext(ctx),
		At:         a.now().UTC(),
	})
}
