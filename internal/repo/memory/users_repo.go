package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wisdomhub/filekeep/internal/domain/user"
)

// UsersRepo keeps users keyed by email. Create enforces email uniqueness under
// the same lock as the insert, matching the unique index in postgres.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.items[email]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return clone(u), nil
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[u.Email]; exists {
		return user.User{}, user.ErrEmailTaken
	}

	if u.Files == nil {
		u.Files = []string{}
	}

	r.items[u.Email] = clone(u)

	return clone(u), nil
}

func (r *UsersRepo) AppendFile(_ context.Context, email, fileID string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.Files = append(clone(u).Files, fileID)
	u.UpdatedAt = time.Now().UTC()
	r.items[email] = u

	return clone(u), nil
}

func clone(u user.User) user.User {
	files := make([]string, len(u.Files))
	copy(files, u.Files)
	u.Files = files
	return u
}
