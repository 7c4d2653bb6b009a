package auth

import (
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/auth-service/internal/model"
)

// Password length policy. bcrypt ignores everything past 72 bytes, so
// longer inputs are rejected instead of silently truncated.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// Credentials is the transient email/password pair of a login or
// registration request. It must never be persisted or logged.
type Credentials struct {
	Email    string
	Password string
}

// Normalize lower-cases and trims the email. The password is untouched.
func (c Credentials) Normalize() Credentials {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

// Validate checks the shape of the credentials before any hashing or
// lookup happens.
func (c Credentials) Validate() error {
	if c.Email == "" {
		return &ValidationError{Field: "email", Reason: "is required"}
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if utf8.RuneCountInString(c.Password) < MinPasswordLength {
		return &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if len(c.Password) > MaxPasswordBytes {
		return &ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}
	return nil
}

// Principal is the authenticated identity: a User without its password
// hash. It is what tokens carry and what voters decide on.
type Principal struct {
	ID    string
	Email string
	Roles model.Roles
}

// PrincipalFromUser projects a stored user onto its principal.
func PrincipalFromUser(u model.User) Principal {
	return Principal{
		ID:    strconv.FormatUint(u.ID, 10),
		Email: u.Email,
		Roles: u.Roles,
	}
}

// PrincipalFromClaims rebuilds a principal from verified token claims.
func PrincipalFromClaims(c *Claims) Principal {
	return Principal{
		ID:    c.Subject,
		Email: c.Email,
		Roles: model.NewRoles(c.Roles...),
	}
}
