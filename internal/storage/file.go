package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Veraticus/invoice-memory/internal/common"
	"github.com/Veraticus/invoice-memory/internal/model"
)

// FileBackend keeps the snapshot as a single indented JSON document.
type FileBackend struct {
	path string
}

// NewFileBackend creates a file backend, making sure the parent directory exists.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}

	return &FileBackend{path: path}, nil
}

// Location returns the document path.
func (b *FileBackend) Location() string {
	return b.path
}

// Load reads the document. A missing file is an empty store.
func (b *FileBackend) Load(ctx context.Context) (*model.MemorySnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewMemorySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", common.ErrCorruptState, b.path, err)
	}

	snapshot := model.NewMemorySnapshot()
	if err := json.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", common.ErrCorruptState, b.path, err)
	}
	snapshot.Normalize()

	return snapshot, nil
}

// Save rewrites the document. The new content is written to a temporary file
// in the same directory and renamed over the old one.
func (b *FileBackend) Save(ctx context.Context, snapshot *model.MemorySnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode memory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".memory-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write memory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("failed to replace memory file: %w", err)
	}

	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (b *FileBackend) Close() error {
	return nil
}
