package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/Dan9191/auth-service/internal/models"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const (
	pqUniqueViolation           = "23505"
	pqInvalidTextRepresentation = "22P02"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresRepository stores users in PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository initializes a new repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// gooseUp is replaced in tests
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// Migrate applies the embedded schema migrations
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := gooseUp(ctx, r.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Create creates a new user in the database
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, is_active, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.Name, user.PasswordHash, user.IsActive, pq.Array(user.Roles)).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by email
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, is_active, roles, created_at
		FROM users
		WHERE email = $1`
	return r.findOne(ctx, query, email)
}

// FindByID retrieves a user by id. Ids that are not valid UUIDs are reported as not found.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, is_active, roles, created_at
		FROM users
		WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindAll retrieves all users in insertion order
func (r *PostgresRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, is_active, roles, created_at
		FROM users
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsActive, pq.Array(&user.Roles), &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying connection pool
func (r *PostgresRepository) Close(_ context.Context) error {
	return r.db.Close()
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsActive, pq.Array(&user.Roles), &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || pqCode(err) == pqInvalidTextRepresentation {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
