package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HMAC-SHA256 key size in bytes.
const MinSecretLength = 32

// ClaimSubject and friends name the claims carried by every token.
const (
	ClaimSubject = "sub"
	ClaimEmail   = "email"
	ClaimRoles   = "roles"
)

// Claims is the signed claim set carried by a bearer token.
type Claims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 bearer tokens.
//
// A token is valid iff its signature verifies under the codec's secret and
// now < exp. Parsing and the expiry check happen in one call, so callers
// see either ErrTokenExpired or ErrTokenMalformed, never both.
//
// Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithClock replaces the clock used when validating expiry.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a Codec signing with secret and issuing tokens that
// live for ttl.
func NewCodec(secret []byte, ttl time.Duration, opts ...CodecOption) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d bytes, got %d", MinSecretLength, len(secret))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	c := &Codec{
		secret: slices.Clone(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject with iat = now and exp = now + ttl.
// Roles are carried in the order given.
func (c *Codec) Issue(subject, email string, roles []string, now time.Time) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("issuing token: subject is required")
	}

	claims := Claims{
		Email: email,
		Roles: slices.Clone(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse verifies tokenString and returns its claims.
//
// On ErrTokenExpired the verified claims are returned alongside the error
// so callers can log who presented the stale token. On ErrTokenMalformed
// the claims are nil.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc, c.parserOptions()...); err != nil {
		err = classify(err)
		if errors.Is(err, ErrTokenExpired) {
			return claims, err
		}
		return nil, err
	}
	return claims, nil
}

// Subject verifies tokenString and returns its "sub" claim.
func (c *Codec) Subject(tokenString string) (string, error) {
	return ExtractClaim[string](c, tokenString, ClaimSubject)
}

// IsValid reports whether tokenString verifies and has not expired.
func (c *Codec) IsValid(tokenString string) bool {
	_, err := c.Parse(tokenString)
	return err == nil
}

// ExtractClaim verifies tokenString and returns the named claim as T.
//
// A missing claim, or one whose JSON value does not fit T, is reported as
// ErrTokenMalformed.
func ExtractClaim[T any](c *Codec, tokenString, name string) (T, error) {
	var out T

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc, c.parserOptions()...); err != nil {
		return out, classify(err)
	}

	raw, ok := claims[name]
	if !ok {
		return out, fmt.Errorf("%w: claim %q missing", ErrTokenMalformed, name)
	}
	if v, ok := raw.(T); ok {
		return v, nil
	}

	// Lists and numbers decode as generic JSON values; re-decode into T.
	b, err := json.Marshal(raw)
	if err != nil {
		return out, fmt.Errorf("%w: claim %q: %w", ErrTokenMalformed, name, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%w: claim %q has unexpected type", ErrTokenMalformed, name)
	}
	return out, nil
}

func (c *Codec) keyFunc(*jwt.Token) (any, error) {
	return c.secret, nil
}

func (c *Codec) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
}

// classify maps jwt errors onto the two failure axes callers distinguish.
// The jwt parser verifies the signature before claims, so a forged token
// is never reported as expired.
func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	}
	return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
}
