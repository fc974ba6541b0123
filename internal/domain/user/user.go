package user

import (
	"errors"
	"time"
)

// ErrDuplicate is returned when the username or email is already taken.
var ErrDuplicate = errors.New("username or email already exists")

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
