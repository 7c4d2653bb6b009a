package auth

import (
	"context"
	"errors"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// UserFinder is the lookup the verifier needs from the user store.
// It returns repository.ErrNotFound for an unknown email.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// CredentialVerifier confirms an email/password pair against the store.
type CredentialVerifier struct {
	users  UserFinder
	hasher PasswordHasher
	// dummy is compared when the email is unknown so both failure paths
	// pay for exactly one hash comparison.
	dummy string
}

// NewCredentialVerifier precomputes the dummy hash with the same hasher,
// so its cost matches real stored hashes.
func NewCredentialVerifier(users UserFinder, hasher PasswordHasher) (*CredentialVerifier, error) {
	dummy, err := hasher.Hash("not-a-real-password-0000")
	if err != nil {
		return nil, err
	}
	return &CredentialVerifier{users: users, hasher: hasher, dummy: dummy}, nil
}

// Verify returns the principal for valid credentials. Unknown email and
// wrong password both yield ErrInvalidCredentials; a store failure yields
// a *DependencyError.
func (v *CredentialVerifier) Verify(ctx context.Context, c Credentials) (Principal, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Principal{}, err
	}

	u, err := v.users.GetByEmail(ctx, c.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		v.hasher.Compare(c.Password, v.dummy)
		return Principal{}, ErrInvalidCredentials
	case err != nil:
		return Principal{}, &DependencyError{Op: "lookup user", Err: err}
	}

	if !v.hasher.Compare(c.Password, u.PasswordHash) {
		return Principal{}, ErrInvalidCredentials
	}
	return PrincipalFromUser(u), nil
}
