package memory

import (
	"context"

	"github.com/knagata/storefront/internal/domain/user"
)

var _ user.Directory = (*UserDirectory)(nil)

// UserDirectory holds the fixture-loaded user accounts. The data is
// immutable after construction, so lookups need no locking.
type UserDirectory struct {
	byID    map[string]*user.User
	byEmail map[string]*user.User
}

// NewUserDirectory builds a directory from fixture data.
func NewUserDirectory(users []user.User) *UserDirectory {
	d := &UserDirectory{
		byID:    make(map[string]*user.User, len(users)),
		byEmail: make(map[string]*user.User, len(users)),
	}
	for i := range users {
		u := users[i]
		d.byID[u.ID] = &u
		d.byEmail[u.Email] = &u
	}
	return d
}

// FindByEmail returns the user with the given email.
func (d *UserDirectory) FindByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := d.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// FindByID returns the user with the given id.
func (d *UserDirectory) FindByID(_ context.Context, id string) (*user.User, error) {
	u, ok := d.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
