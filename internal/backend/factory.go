package backend

import (
	"context"
	"fmt"

	"colectas/internal/log"
	"colectas/internal/records/memory"
	"colectas/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	var store *memory.Store
	if config.SeedClubID != "" {
		store = memory.NewFromFiles(dataDir, config.SeedClubID, config.SeedClubName)
		miembros, _ := store.ListMiembros(ctx, config.SeedClubID)
		f.logger.Info("Initialized memory backend",
			"data_directory", dataDir,
			log.FieldClubID, config.SeedClubID,
			"seeded_miembros", len(miembros))
	} else {
		store = memory.New()
		f.logger.Info("Initialized empty memory backend")
	}

	return &BackendResult{Store: store}, nil
}
