package auth

import (
	"context"
	"errors"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// UserCreator persists a new user. It returns repository.ErrEmailExists
// when the email is taken.
type UserCreator interface {
	Create(ctx context.Context, u *model.User) error
}

// Registrar validates, hashes and stores new accounts.
type Registrar struct {
	users        UserCreator
	hasher       PasswordHasher
	defaultRoles model.Roles
}

func NewRegistrar(users UserCreator, hasher PasswordHasher, defaultRoles model.Roles) *Registrar {
	return &Registrar{users: users, hasher: hasher, defaultRoles: defaultRoles}
}

// Register creates an account with the default roles and returns its
// principal. Shape problems are rejected before hashing; only the hash is
// handed to the store.
func (r *Registrar) Register(ctx context.Context, c Credentials) (Principal, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Principal{}, err
	}

	hashed, err := r.hasher.Hash(c.Password)
	if err != nil {
		return Principal{}, err
	}

	u := model.User{
		Email:        c.Email,
		PasswordHash: hashed,
		Roles:        model.NewRoles(r.defaultRoles...),
	}
	if err := r.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Principal{}, err
		}
		return Principal{}, &DependencyError{Op: "create user", Err: err}
	}
	return PrincipalFromUser(u), nil
}
