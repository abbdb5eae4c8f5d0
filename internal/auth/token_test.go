package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodec_Validation(t *testing.T) {
	_, err := NewCodec([]byte("short"), time.Hour)
	assert.Error(t, err)

	_, err = NewCodec([]byte(testSecret), 0)
	assert.Error(t, err)

	c, err := NewCodec([]byte(testSecret), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, c.TTL())
}

func TestCodec_IssueAndParse(t *testing.T) {
	clock := newFakeClock(testEpoch)
	c := newTestCodec(t, clock)

	token, err := c.Issue("8b4a3c1e-0000-4000-8000-000000000001", "alice@example.com",
		[]string{"STUDENT", "ADMIN"}, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "compact JWS has three segments")

	claims, err := c.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "8b4a3c1e-0000-4000-8000-000000000001", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"STUDENT", "ADMIN"}, claims.Roles)
	assert.True(t, testEpoch.Equal(claims.IssuedAt.Time), "iat = %s", claims.IssuedAt)
	assert.True(t, testEpoch.Add(time.Hour).Equal(claims.ExpiresAt.Time), "exp = %s", claims.ExpiresAt)
}

func TestCodec_IssueRequiresSubject(t *testing.T) {
	c := newTestCodec(t, newFakeClock(testEpoch))

	_, err := c.Issue("", "a@b.c", []string{"STUDENT"}, testEpoch)
	assert.Error(t, err)
}

func TestExtractClaim_RolesRoundTrip(t *testing.T) {
	clock := newFakeClock(testEpoch)
	c := newTestCodec(t, clock)

	for _, roles := range [][]string{
		{"STUDENT"},
		{"ADMIN", "STUDENT"},
		{"COORDINATOR", "TEACHER", "STUDENT", "ADMIN"},
	} {
		token, err := c.Issue("subject", "x@example.com", roles, clock.Now())
		require.NoError(t, err)

		got, err := ExtractClaim[[]string](c, token, ClaimRoles)
		require.NoError(t, err)
		assert.Equal(t, roles, got)
	}
}

func TestExtractClaim_TypedValues(t *testing.T) {
	clock := newFakeClock(testEpoch)
	c := newTestCodec(t, clock)

	token, err := c.Issue("subject-1", "bob@example.com", []string{"TEACHER"}, clock.Now())
	require.NoError(t, err)

	email, err := ExtractClaim[string](c, token, ClaimEmail)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", email)

	sub, err := c.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "subject-1", sub)

	exp, err := ExtractClaim[int64](c, token, "exp")
	require.NoError(t, err)
	assert.Equal(t, testEpoch.Add(time.Hour).Unix(), exp)
}

func TestExtractClaim_MissingOrMistyped(t *testing.T) {
	clock := newFakeClock(testEpoch)
	c := newTestCodec(t, clock)

	token, err := c.Issue("subject-1", "bob@example.com", []string{"TEACHER"}, clock.Now())
	require.NoError(t, err)

	_, err = ExtractClaim[string](c, token, "department")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = ExtractClaim[int](c, token, ClaimEmail)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCodec_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock(testEpoch)
	c := newTestCodec(t, clock)

	token, err := c.Issue("subject", "a@example.com", []string{"STUDENT"}, clock.Now())
	require.NoError(t, err)

	clock.Set(testEpoch.Add(time.Hour - time.Second))
	assert.True(t, c.IsValid(token), "one second before exp is valid")

	clock.Set(testEpoch.Add(time.Hour))
	assert.False(t, c.IsValid(token), "now == exp is expired")
	_, err = c.Subject(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenMalformed)

	clock.Set(testEpoch.Add(2 * time.Hour))
	claims, err := c.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	require.NotNil(t, claims, "expired tokens still report their verified claims")
	assert.Equal(t, "subject", claims.Subject)
}

func TestCodec_TamperedSignature(t *testing.T) {
	clock := newFakeClock(testEpoch)
	c := newTestCodec(t, clock)

	token, err := c.Issue("subject", "a@example.com", []string{"STUDENT"}, clock.Now())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = c.Subject(tampered)
	assert.ErrorIs(t, err, ErrTokenMalformed)
	assert.False(t, c.IsValid(tampered))

	// Tampered and expired is still reported as malformed.
	clock.Set(testEpoch.Add(3 * time.Hour))
	_, err = c.Subject(tampered)
	assert.ErrorIs(t, err, ErrTokenMalformed)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_DifferentSecretRejects(t *testing.T) {
	clock := newFakeClock(testEpoch)
	issuer := newTestCodec(t, clock)
	other, err := NewCodec([]byte("another-secret-that-is-32-bytes-long!!"), time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	token, err := issuer.Issue("subject", "a@example.com", []string{"STUDENT"}, clock.Now())
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCodec_RejectsForeignAlgorithms(t *testing.T) {
	clock := newFakeClock(testEpoch)
	c := newTestCodec(t, clock)

	claims := jwt.MapClaims{"sub": "subject", "exp": testEpoch.Add(time.Hour).Unix()}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.False(t, c.IsValid(none))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.False(t, c.IsValid(hs512))
}

func TestCodec_RequiresExpiration(t *testing.T) {
	c := newTestCodec(t, newFakeClock(testEpoch))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "subject"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = c.Subject(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCodec_Garbage(t *testing.T) {
	c := newTestCodec(t, newFakeClock(testEpoch))

	for _, input := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		assert.False(t, c.IsValid(input), input)
		_, err := c.Parse(input)
		assert.ErrorIs(t, err, ErrTokenMalformed, input)
	}
}
