package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dan9191/auth-service/internal/config"
)

// Open connects the store selected by cfg.StoreDriver and prepares its schema
func Open(ctx context.Context, cfg *config.Config) (UserRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return NewMemoryRepository(), nil
	case config.DriverMongo:
		return NewMongoRepository(ctx, cfg.DBConn, cfg.MongoDatabase)
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DBConn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		repo := NewPostgresRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
