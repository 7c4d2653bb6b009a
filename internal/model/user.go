package model

import "time"

// User represents an account as stored in the `users` table together
// with its rows in `user_roles`. The json tags are omitted on purpose:
// handlers define their own response types so PasswordHash can never
// leak into a response body by accident.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique, normalized email address.
//	PasswordHash – bcrypt hash; the only password-derived value stored.
//	Roles        – role names assigned to the user (user_roles.role).
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Roles        Roles     // user_roles.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
