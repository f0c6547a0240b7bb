// Package session defines the session registry contract: opaque bearer
// tokens mapped to user ids.
package session

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a token is unknown or has expired.
var ErrNotFound = errors.New("session not found")

// Session associates an opaque token with a user for a bounded lifetime.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Registry manages active sessions. Tokens are unguessable: 256 bits from
// a cryptographically secure source.
type Registry interface {
	// Create issues a new token for the user.
	Create(ctx context.Context, userID string) (string, error)
	// Resolve returns the user id for a live token, or ErrNotFound for an
	// unknown or expired one.
	Resolve(ctx context.Context, token string) (string, error)
	// Revoke destroys a session. Revoking an unknown token is a no-op.
	Revoke(ctx context.Context, token string) error
}
