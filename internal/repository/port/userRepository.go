package repository

import (
	"context"
	"errors"
)

// User is the slice of the account record this service needs: identity
// issuance and profile management live in another service.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	UserType string `json:"user_type"`
}

// ErrUserNotFound signals that the id does not resolve to an account.
var ErrUserNotFound = errors.New("user: not found")

// UserRepository is the identity lookup consumed by the gateway.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
}
