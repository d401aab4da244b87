package auth

import (
	"errors"
	"time"
)

// ErrInvalidCredentials is returned when a login attempt fails.
// The handler maps it to a generic 401 so callers cannot probe accounts.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// User represents an authenticated purchasing user account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Categories   []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
