package auth

import (
	"context"
	"slices"
)

// Principal is the caller identity established for a single request.
// It is built fresh from the credential store on every request and never
// persisted.
type Principal struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Roles       []Role   `json:"roles"`
	Authorities []string `json:"authorities"`
}

// NewPrincipal snapshots an identity into a request principal.
func NewPrincipal(id *Identity) *Principal {
	roles := slices.Clone(id.Roles)
	return &Principal{
		ID:          id.ID,
		Email:       id.Email,
		Roles:       roles,
		Authorities: Authorities(roles),
	}
}

// HasAuthority reports whether the principal holds authority a.
func (p *Principal) HasAuthority(a string) bool {
	return slices.Contains(p.Authorities, a)
}

// HasPermission reports whether any of the principal's roles grants perm.
func (p *Principal) HasPermission(perm Permission) bool {
	return p.HasAuthority(string(perm))
}

// HasRole reports whether the principal holds role r.
func (p *Principal) HasRole(r Role) bool {
	return slices.Contains(p.Roles, r)
}

type principalKey struct{}

type clientAddrKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal established for this request,
// if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// WithClientAddr records the caller's network address for audit events.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientAddrKey{}, addr)
}

// ClientAddrFromContext returns the address recorded by WithClientAddr.
func ClientAddrFromContext(ctx context.Context) string {
	addr, _ := ctx.Value(clientAddrKey{}).(string)
	return addr
}
