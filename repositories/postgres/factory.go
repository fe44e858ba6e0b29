package postgres

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/upb/observability-demo-api/config"
	"github.com/upb/observability-demo-api/repositories"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	clock  clock.Clock
	logger *zap.Logger
}

// NewRepositoryFactory opens the connection pool and creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, clk clock.Clock, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return NewRepositoryFactoryWithDB(db, clk, logger), nil
}

// NewRepositoryFactoryWithDB creates a factory over an existing pool
func NewRepositoryFactoryWithDB(db *DB, clk clock.Clock, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, clock: clk, logger: logger}
}

// InitSchema creates the items table and its indexes when missing.
func (f *RepositoryFactory) InitSchema(ctx context.Context) error {
	return f.db.InitSchema(ctx)
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Items: NewItemRepository(f.db, f.clock, f.logger),
	}
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
