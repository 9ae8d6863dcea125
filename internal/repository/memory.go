package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Dan9191/auth-service/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. Records are copied in and
// out so callers never share state with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	order   []string
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

// Create stores a copy of user, assigning ID and CreatedAt
func (r *MemoryRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicate
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()

	r.byID[user.ID] = cloneUser(user)
	r.byEmail[user.Email] = user.ID
	r.order = append(r.order, user.ID)
	return nil
}

// FindByEmail retrieves a user by email
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

// FindByID retrieves a user by id
func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

// FindAll returns users in insertion order
func (r *MemoryRepository) FindAll(_ context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, cloneUser(r.byID[id]))
	}
	return users, nil
}

// Ping always succeeds
func (r *MemoryRepository) Ping(_ context.Context) error { return nil }

// Close is a no-op
func (r *MemoryRepository) Close(_ context.Context) error { return nil }

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Roles != nil {
		c.Roles = append([]string(nil), u.Roles...)
	}
	return &c
}
