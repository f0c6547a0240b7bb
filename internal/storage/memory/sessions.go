package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/knagata/storefront/internal/domain/session"
)

var _ session.Registry = (*SessionRegistry)(nil)

// SessionRegistry maps opaque bearer tokens to user ids. Tokens carry 256
// bits of entropy from crypto/rand. Sessions expire after the configured
// TTL; a TTL of zero disables expiry.
type SessionRegistry struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]session.Session
}

// NewSessionRegistry creates an empty registry with the given TTL.
func NewSessionRegistry(ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]session.Session),
	}
}

// Create issues a new token for the user.
func (r *SessionRegistry) Create(_ context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", errors.Wrap(err, "generate token")
	}

	now := r.now()
	s := session.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
	}
	if r.ttl > 0 {
		s.ExpiresAt = now.Add(r.ttl)
	}

	r.mu.Lock()
	r.sessions[token] = s
	r.mu.Unlock()

	return token, nil
}

// Resolve returns the user id for a live token. Expiry is checked inline,
// so a stale token is rejected even before the sweeper removes it.
func (r *SessionRegistry) Resolve(_ context.Context, token string) (string, error) {
	r.mu.RLock()
	s, ok := r.sessions[token]
	r.mu.RUnlock()

	if !ok {
		return "", session.ErrNotFound
	}
	if !s.ExpiresAt.IsZero() && r.now().After(s.ExpiresAt) {
		return "", session.ErrNotFound
	}
	return s.UserID, nil
}

// Revoke destroys the session. Revoking an unknown token is a no-op.
func (r *SessionRegistry) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
	return nil
}

// StartSweeper launches a goroutine that drops expired sessions at the
// given interval, until ctx is cancelled. It does nothing when expiry is
// disabled.
func (r *SessionRegistry) StartSweeper(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.sweep(now)
			}
		}
	}()
}

func (r *SessionRegistry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, s := range r.sessions {
		if !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt) {
			delete(r.sessions, token)
		}
	}
}

// newToken returns 32 random bytes encoded as unpadded base64url.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
