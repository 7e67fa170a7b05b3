// Package storage provides durable backends for the pattern store snapshot.
package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/invoice-memory/internal/config"
	"github.com/Veraticus/invoice-memory/internal/model"
)

// Backend persists the whole memory snapshot. Load returns an empty snapshot
// when nothing has been written yet and an error wrapping
// common.ErrCorruptState when the stored state cannot be decoded.
type Backend interface {
	Load(ctx context.Context) (*model.MemorySnapshot, error)
	Save(ctx context.Context, snapshot *model.MemorySnapshot) error
	Location() string
	Close() error
}

// Open creates the backend of the given kind at path. SQLite databases are
// migrated before they are returned.
func Open(ctx context.Context, kind, path string) (Backend, error) {
	switch kind {
	case config.BackendFile:
		return NewFileBackend(path)
	case config.BackendSQLite:
		backend, err := NewSQLiteBackend(path)
		if err != nil {
			return nil, err
		}
		if err := backend.Migrate(ctx); err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}
