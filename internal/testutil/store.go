// Package testutil provides test helpers for stores, clocks and invoices.
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/invoice-memory/internal/config"
	"github.com/Veraticus/invoice-memory/internal/memory"
	"github.com/Veraticus/invoice-memory/internal/storage"
)

// Epoch is the default start time of a test Clock.
var Epoch = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

// Clock is a manually advanced clock.
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

// NewClock returns a clock stopped at Epoch.
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AdvanceDays moves the clock forward by days, which may be fractional.
func (c *Clock) AdvanceDays(days float64) {
	c.Advance(time.Duration(days * float64(24*time.Hour)))
}

// NewSQLiteStore opens a pattern store over a migrated in-memory SQLite
// database. It is closed when the test ends.
func NewSQLiteStore(t *testing.T, clock *Clock) *memory.Store {
	t.Helper()
	return openStore(t, clock, config.BackendSQLite, ":memory:")
}

// NewFileStore opens a pattern store over a JSON file in a temp directory and
// returns the file path along with it.
func NewFileStore(t *testing.T, clock *Clock) (*memory.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.json")
	return openStore(t, clock, config.BackendFile, path), path
}

func openStore(t *testing.T, clock *Clock, kind, path string) *memory.Store {
	t.Helper()
	ctx := context.Background()

	backend, err := storage.Open(ctx, kind, path)
	if err != nil {
		t.Fatalf("failed to open %s backend: %v", kind, err)
	}

	var opts []memory.Option
	if clock != nil {
		opts = append(opts, memory.WithClock(clock.Now))
	}
	store, err := memory.Open(ctx, backend, opts...)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("Failed to close store: %v", err)
		}
	})
	return store
}
