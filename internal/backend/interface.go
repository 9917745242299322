package backend

import (
	"context"
	"fmt"

	"colectas/internal/records"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the store and an optional cleanup function.
type BackendResult struct {
	Store   records.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string
	SeedClubID    string
	SeedClubName  string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// FromAppConfig extracts the backend settings of the application config.
func FromAppConfig(dataBackend, sqlitePath, dataDir, seedClubID, seedClubName string) (Config, error) {
	c := Config{
		Type:          BackendType(dataBackend),
		SQLiteDBPath:  sqlitePath,
		DataDirectory: dataDir,
		SeedClubID:    seedClubID,
		SeedClubName:  seedClubName,
	}
	return c, c.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}
