package backend

import (
	"context"
	"fmt"

	"spendtrack/internal/log"
	"spendtrack/internal/storage"
	storagemongo "spendtrack/internal/storage/mongo"
	"spendtrack/internal/store/memory"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new store factory.
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore implements Factory.CreateStore.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case MongoBackend:
		return f.createMongoStore(ctx, config)
	case MemoryBackend:
		return f.createMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}

	f.logger.Info("initialized sqlite store", log.FieldBackend, SQLiteBackend, "db_path", config.SQLiteDBPath)

	return &Result{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMongoStore(ctx context.Context, config Config) (*Result, error) {
	repo, err := storagemongo.New(ctx, config.MongoURI, config.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("initialize mongo store: %w", err)
	}

	f.logger.Info("initialized mongo store", log.FieldBackend, MongoBackend, "database", config.MongoDatabase)

	return &Result{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryStore() (*Result, error) {
	f.logger.Info("initialized memory store", log.FieldBackend, MemoryBackend)

	return &Result{
		Store:   memory.New(),
		Cleanup: nil,
	}, nil
}
