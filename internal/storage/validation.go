package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/invoice-memory/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilSnapshot    = errors.New("snapshot cannot be nil")
	ErrInvalidPattern = errors.New("invalid vendor pattern")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSnapshot rejects snapshots that cannot be written back faithfully.
func validateSnapshot(snapshot *model.MemorySnapshot) error {
	if snapshot == nil {
		return ErrNilSnapshot
	}
	for name, vendor := range snapshot.Vendors {
		if vendor == nil {
			continue
		}
		for field, entry := range vendor.Patterns {
			if entry == nil {
				continue
			}
			if entry.Confidence < 0 || entry.Confidence > 1 {
				return fmt.Errorf("%w: %s/%s confidence %v out of range", ErrInvalidPattern, name, field, entry.Confidence)
			}
		}
	}
	return nil
}
