package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_IssuesTokenWithDefaultRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := WithClientAddr(t.Context(), "10.0.0.7")

	res, err := f.auth.Register(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, res.IdentityID)
	require.NotEmpty(t, res.Token)

	claims, err := f.codec.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.IdentityID, claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"STUDENT"}, claims.Roles)

	stored, err := f.store.FindByID(ctx, res.IdentityID)
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	ev := f.events.last()
	assert.Equal(t, EventRegistered, ev.Kind)
	assert.Equal(t, res.IdentityID, ev.IdentityID)
	assert.Equal(t, "10.0.0.7", ev.RemoteAddr)
	assert.Equal(t, testEpoch, ev.At)
}

func TestRegister_ConfiguredDefaultRole(t *testing.T) {
	f := newAuthFixture(t, WithDefaultRole(RoleTeacher))

	res, err := f.auth.Register(t.Context(), "prof@example.com", "secret1")
	require.NoError(t, err)

	roles, err := ExtractClaim[[]string](f.codec, res.Token, ClaimRoles)
	require.NoError(t, err)
	assert.Equal(t, []string{"TEACHER"}, roles)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.auth.Register(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.auth.Register(t.Context(), "alice@example.com", "another")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.Equal(t, EventRegisterConflict, f.events.last().Kind)

	// Email comparison is case-sensitive.
	_, err = f.auth.Register(t.Context(), "Alice@example.com", "secret1")
	assert.NoError(t, err)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	f := newAuthFixture(t)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
		others    []error
	)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Register(context.Background(), "race@example.com", "secret1")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrDuplicateIdentity):
				dupes++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, dupes)

	n, err := f.store.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegister_RoleMissing(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.db.ExecContext(t.Context(), `DELETE FROM roles WHERE name = 'STUDENT'`)
	require.NoError(t, err)

	_, err = f.auth.Register(t.Context(), "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrRoleMissing)

	n, err := f.store.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n, "no partial identity is created")
}

func TestNewAuthenticator_UnknownDefaultRole(t *testing.T) {
	db := testDB(t)
	_, err := NewAuthenticator(NewSQLiteCredentialStore(db), NewSQLiteRoleCatalog(db),
		newTestHasher(), newTestCodec(t, newFakeClock(testEpoch)), WithDefaultRole("JANITOR"))
	assert.ErrorIs(t, err, ErrRoleMissing)
}

func TestCheckDefaultRole(t *testing.T) {
	f := newAuthFixture(t)

	info, err := f.auth.CheckDefaultRole(t.Context())
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, info.Name)
	assert.Equal(t, "University student", info.Description)
	assert.Equal(t, RoleStudent, f.auth.DefaultRole())
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)

	reg, err := f.auth.Register(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)

	res, err := f.auth.Login(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.IdentityID, res.IdentityID)

	sub, err := f.codec.Subject(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.IdentityID, sub)
	assert.Equal(t, EventLoginSucceeded, f.events.last().Kind)
}

func TestLogin_CarriesAllCurrentRoles(t *testing.T) {
	f := newAuthFixture(t)

	reg, err := f.auth.Register(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.store.GrantRole(t.Context(), reg.IdentityID, RoleAdmin))
	require.NoError(t, f.store.GrantRole(t.Context(), reg.IdentityID, RoleTeacher))

	// The registration token is a snapshot and still carries one role.
	roles, err := ExtractClaim[[]string](f.codec, reg.Token, ClaimRoles)
	require.NoError(t, err)
	assert.Equal(t, []string{"STUDENT"}, roles)

	res, err := f.auth.Login(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)

	roles, err = ExtractClaim[[]string](f.codec, res.Token, ClaimRoles)
	require.NoError(t, err)
	assert.Equal(t, []string{"STUDENT", "TEACHER", "ADMIN"}, roles)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)

	reg, err := f.auth.Register(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)

	_, wrongPassword := f.auth.Login(t.Context(), "alice@example.com", "wrongpass")
	assert.Equal(t, EventLoginFailed, f.events.last().Kind)
	assert.Equal(t, ReasonBadPassword, f.events.last().Reason)

	_, unknownEmail := f.auth.Login(t.Context(), "nobody@example.com", "secret1")
	assert.Equal(t, ReasonUnknownEmail, f.events.last().Reason)

	require.NoError(t, f.store.SetEnabled(t.Context(), reg.IdentityID, false))
	_, disabled := f.auth.Login(t.Context(), "alice@example.com", "secret1")
	assert.Equal(t, ReasonDisabled, f.events.last().Reason)

	for _, err := range []error{wrongPassword, unknownEmail, disabled} {
		assert.Same(t, ErrInvalidCredentials, err)
		assert.Equal(t, "invalid credentials", err.Error())
	}
}

func TestLogin_CorruptHashIsAFault(t *testing.T) {
	f := newAuthFixture(t)

	reg, err := f.auth.Register(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)
	_, err = f.db.ExecContext(t.Context(), `UPDATE identities SET password_hash = 'garbage' WHERE id = ?`, reg.IdentityID)
	require.NoError(t, err)

	_, err = f.auth.Login(t.Context(), "alice@example.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveByID(t *testing.T) {
	f := newAuthFixture(t)

	reg, err := f.auth.Register(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)

	first, err := f.auth.ResolveByID(t.Context(), reg.IdentityID)
	require.NoError(t, err)
	second, err := f.auth.ResolveByID(t.Context(), reg.IdentityID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, reg.IdentityID, first.ID)
	assert.Equal(t, "alice@example.com", first.Email)
	assert.Equal(t, []Role{RoleStudent}, first.Roles)
	assert.True(t, first.HasAuthority("ROLE_STUDENT"))
}

func TestResolveByID_Deleted(t *testing.T) {
	f := newAuthFixture(t)

	reg, err := f.auth.Register(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(t.Context(), reg.IdentityID))

	_, err = f.auth.ResolveByID(t.Context(), reg.IdentityID)
	assert.ErrorIs(t, err, ErrPrincipalNotFound)
}

func TestResolveByID_Disabled(t *testing.T) {
	f := newAuthFixture(t)

	reg, err := f.auth.Register(t.Context(), "alice@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, f.store.SetEnabled(t.Context(), reg.IdentityID, false))

	_, err = f.auth.ResolveByID(t.Context(), reg.IdentityID)
	assert.ErrorIs(t, err, ErrIdentityDisabled)
}

// failingStore lets tests inject store faults.
type failingStore struct {
	CredentialStore
	err error
}

func (s failingStore) FindByEmail(context.Context, string) (*Identity, error) { return nil, s.err }
func (s failingStore) FindByID(context.Context, string) (*Identity, error)    { return nil, s.err }

func TestStoreFaultsAreNotAuthFailures(t *testing.T) {
	f := newAuthFixture(t)
	fault := errors.New("disk I/O error")

	a, err := NewAuthenticator(failingStore{CredentialStore: f.store, err: fault}, f.roles, newTestHasher(), f.codec)
	require.NoError(t, err)

	_, err = a.Login(t.Context(), "alice@example.com", "secret1")
	assert.ErrorIs(t, err, fault)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.ResolveByID(t.Context(), "some-id")
	assert.ErrorIs(t, err, fault)
	assert.NotErrorIs(t, err, ErrPrincipalNotFound)
}
