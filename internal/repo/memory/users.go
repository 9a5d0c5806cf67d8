package memory

import (
	"context"
	"sort"
	"time"

	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/store"
)

type UsersRepo struct {
	db *DB
}

// caller holds db.mu
func (r *UsersRepo) emailTaken(email string, except int64) bool {
	for id, u := range r.db.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *UsersRepo) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	email := user.NormalizeEmail(nu.Email)

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.emailTaken(email, 0) {
		return user.User{}, user.ErrEmailTaken
	}

	role := nu.Role
	if role == "" {
		role = user.RoleUser
	}

	r.db.nextUser++
	now := time.Now().UTC()
	u := user.User{
		ID:           r.db.nextUser,
		Name:         nu.Name,
		Email:        email,
		PasswordHash: nu.PasswordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.db.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) List(_ context.Context, limit, offset int) ([]user.User, int, error) {
	r.db.mu.RLock()
	active := make([]user.User, 0, len(r.db.users))
	for _, u := range r.db.users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.After(active[j].CreatedAt)
		}
		return active[i].ID > active[j].ID
	})

	return window(active, limit, offset), len(active), nil
}

func (r *UsersRepo) Update(_ context.Context, id int64, ch user.Changes) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if ch.Empty() {
		return u, nil
	}

	if ch.Email != nil {
		email := user.NormalizeEmail(*ch.Email)
		if r.emailTaken(email, id) {
			return user.User{}, user.ErrEmailTaken
		}
		u.Email = email
	}
	if ch.Name != nil {
		u.Name = *ch.Name
	}
	if ch.PasswordHash != nil {
		u.PasswordHash = *ch.PasswordHash
	}
	u.UpdatedAt = time.Now().UTC()
	r.db.users[id] = u

	return u, nil
}

func (r *UsersRepo) TouchLastLogin(_ context.Context, id int64) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	r.db.users[id] = u

	return u, nil
}

// Delete refuses to orphan products, soft-deleted ones included, like the foreign key does.
func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return user.ErrNotFound
	}
	for _, p := range r.db.products {
		if p.CreatedBy == id {
			return store.ErrForeignKey
		}
	}
	delete(r.db.users, id)

	return nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
