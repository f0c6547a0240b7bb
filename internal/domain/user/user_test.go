package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDirectory struct {
	byEmail map[string]*User
	byID    map[string]*User
}

func (m *mockDirectory) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockDirectory) FindByID(_ context.Context, id string) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func newDirectory(users ...*User) *mockDirectory {
	d := &mockDirectory{
		byEmail: make(map[string]*User),
		byID:    make(map[string]*User),
	}
	for _, u := range users {
		d.byEmail[u.Email] = u
		d.byID[u.ID] = u
	}
	return d
}

func TestAuthenticate_Success(t *testing.T) {
	svc := NewService(newDirectory(&User{
		ID:       "u1",
		Email:    "tanaka@example.com",
		Password: "password123",
	}))

	u, err := svc.Authenticate(context.Background(), "tanaka@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	svc := NewService(newDirectory())

	_, err := svc.Authenticate(context.Background(), "", "password123")
	require.ErrorIs(t, err, ErrMissingCredentials)

	_, err = svc.Authenticate(context.Background(), "tanaka@example.com", "")
	require.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAuthenticate_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	svc := NewService(newDirectory(&User{
		ID:       "u1",
		Email:    "tanaka@example.com",
		Password: "password123",
	}))

	_, unknownErr := svc.Authenticate(context.Background(), "nobody@example.com", "password123")
	_, wrongErr := svc.Authenticate(context.Background(), "tanaka@example.com", "wrong")

	// Both failure modes are indistinguishable to the caller.
	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestGet(t *testing.T) {
	svc := NewService(newDirectory(&User{ID: "u1", Email: "tanaka@example.com"}))

	u, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "tanaka@example.com", u.Email)

	_, err = svc.Get(context.Background(), "u9")
	require.ErrorIs(t, err, ErrNotFound)
}
