package auth

import (
	"errors"
	"slices"
	"time"
)

// Role is a fixed authorization tag attached to an Identity.
type Role string

// Roles known to the system. Each is also a row in the roles table.
const (
	RoleStudent     Role = "STUDENT"
	RoleTeacher     Role = "TEACHER"
	RoleCoordinator Role = "COORDINATOR"
	RoleAdmin       Role = "ADMIN"
)

// AllRoles lists every role in catalog rank order.
var AllRoles = []Role{RoleStudent, RoleTeacher, RoleCoordinator, RoleAdmin}

// IsValid reports whether r is one of the enumerated roles.
func (r Role) IsValid() bool {
	return slices.Contains(AllRoles, r)
}

// RoleInfo is a role as stored in the catalog.
type RoleInfo struct {
	Name        Role   `json:"name"`
	Description string `json:"description"`
	Rank        int    `json:"rank"`
}

// Identity is a stored user record.
//
// ID and Email never change after creation. Roles and Enabled are changed
// only by administrative action.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleNames returns the identity's roles as plain strings, in order.
func (i *Identity) RoleNames() []string {
	names := make([]string, len(i.Roles))
	for n, r := range i.Roles {
		names[n] = string(r)
	}
	return names
}

// Sentinel errors for the authentication core.
var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateIdentity means the email is already registered.
	ErrDuplicateIdentity = errors.New("identity already exists")

	// ErrTokenExpired means the token verified but now >= exp.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed means the token could not be parsed or its signature
	// did not verify.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrPrincipalNotFound means a valid token names an identity that no
	// longer exists.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrRoleMissing means the default role is absent from the catalog.
	ErrRoleMissing = errors.New("default role missing from catalog")

	// ErrIdentityNotFound is returned by credential stores on a lookup miss.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrRoleNotFound is returned by role catalogs on a lookup miss.
	ErrRoleNotFound = errors.New("role not found")

	// ErrIdentityDisabled means the identity exists but may not authenticate.
	ErrIdentityDisabled = errors.New("identity disabled")
)
