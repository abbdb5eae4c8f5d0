package api

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Credential field limits.
const (
	maxEmailLength    = 100
	minPasswordLength = 6
	maxPasswordLength = 255
)

// credentialsRequest is the body of register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// normalize trims the email and checks both fields, returning the first
// problem found as a client-facing message.
func (req *credentialsRequest) normalize() error {
	req.Email = strings.TrimSpace(req.Email)

	switch {
	case req.Email == "":
		return fmt.Errorf("email is required")
	case utf8.RuneCountInString(req.Email) > maxEmailLength:
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	case !validEmail(req.Email):
		return fmt.Errorf("email must be a valid email address")
	}

	n := utf8.RuneCountInString(req.Password)
	switch {
	case req.Password == "":
		return fmt.Errorf("password is required")
	case n < minPasswordLength || n > maxPasswordLength:
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	case strings.TrimSpace(req.Password) != req.Password:
		return fmt.Errorf("password must not start or end with whitespace")
	}
	return nil
}

// validEmail accepts a bare addr-spec with a dotless or dotted domain. The
// display-name form ("Alice <a@b>") is rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && at < len(s)-1
}
