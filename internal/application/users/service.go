package users

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tubeconv/internal/domain/user"
)

var (
	ErrInvalidInput = errors.New("invalid username, email or password")
	ErrDisabled     = errors.New("registration is not configured")

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,32}$`)
)

const (
	minPasswordLen = 6
	// bcrypt rejects longer inputs.
	maxPasswordLen = 72
)

// Repository persists user accounts. Create must assign ID and timestamps
// and return user.ErrDuplicate when the username or email is taken.
type Repository interface {
	Create(ctx context.Context, u *user.User) error
}

// Service registers user accounts.
type Service struct {
	repo Repository
	cost int
}

// NewService creates a registration service. A nil repo disables registration.
func NewService(repo Repository, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost}
}

// Enabled reports whether a user store is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.repo != nil
}

// Register validates the input, hashes the password and stores a new active user.
func (s *Service) Register(ctx context.Context, username, email, password string) (user.User, error) {
	if !s.Enabled() {
		return user.User{}, ErrDisabled
	}

	cleanUsername, cleanEmail, err := validateRegistration(username, email, password)
	if err != nil {
		return user.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return user.User{}, err
	}

	account := user.User{
		Username:     cleanUsername,
		Email:        cleanEmail,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, &account); err != nil {
		return user.User{}, err
	}

	return account, nil
}

func validateRegistration(username, email, password string) (string, string, error) {
	cleanUsername := strings.TrimSpace(username)
	if !usernamePattern.MatchString(cleanUsername) {
		return "", "", ErrInvalidInput
	}

	cleanEmail := strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(cleanEmail)
	if err != nil || addr.Address != cleanEmail {
		return "", "", ErrInvalidInput
	}

	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return "", "", ErrInvalidInput
	}

	return cleanUsername, cleanEmail, nil
}
