package core

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type Repository interface {
	FindByUID(ctx context.Context, uid string) (*User, error)

	// CreateUser inserts a new user row. Returns ErrAlreadyExists if a
	// row with the same UID is present; the primary key is what makes
	// concurrent signup-on-first-login safe.
	CreateUser(ctx context.Context, user *User) error

	UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) error

	Close() error
}
