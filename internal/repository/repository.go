package repository

import (
	"context"
	"errors"

	"github.com/Dan9191/auth-service/internal/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when an insert violates the unique email constraint
	ErrDuplicate = errors.New("duplicate user")
)

// UserRepository persists user records. Email is unique across all users.
type UserRepository interface {
	// Create inserts the user and fills in ID and CreatedAt
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindAll returns every user in store order
	FindAll(ctx context.Context) ([]*models.User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
