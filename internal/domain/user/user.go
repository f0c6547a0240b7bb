// Package user holds the user account model and credential checking.
// There is no registration flow: accounts come from fixtures and are
// immutable for the process lifetime.
package user

import (
	"context"
	"crypto/subtle"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on a failed login attempt. It is
	// deliberately the same for unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("email and password are required")
)

// Address is a shipping or billing address.
type Address struct {
	Name       string
	PostalCode string
	Prefecture string
	City       string
	Line1      string
	Line2      string
	Phone      string
}

// User is a customer account. Password is an opaque comparison value, not
// a hash: the fixture data ships plaintext demo credentials.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Address   *Address
}

// Directory provides read-only user lookup.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// Service wraps a Directory with credential checking.
type Service struct {
	users Directory
}

// NewService creates a user Service backed by the given directory.
func NewService(users Directory) *Service {
	return &Service{users: users}
}

// Authenticate verifies the email/password pair and returns the matching
// user. The password comparison is constant-time so response timing does
// not reveal whether the email exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "find user")
	}

	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.users.FindByID(ctx, id)
}
