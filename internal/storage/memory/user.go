package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kunaltyagi18/ecomm-store/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository on a DB.
type UserRepository struct {
	db *DB
}

// Create inserts u. Emails are unique case-insensitively.
func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrEmailTaken
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.db.now()
	u.CreatedAt, u.UpdatedAt = now, now

	cp := *u
	r.db.users[u.ID] = &cp
	return nil
}

// GetByID returns a single user.
func (r *UserRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(_ context.Context) ([]user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]user.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
