package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/invoice-memory/internal/common"
	"github.com/Veraticus/invoice-memory/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteBackend stores the snapshot in normalized SQLite tables. Every Save
// rewrites all tables inside one transaction, so readers never observe a
// partially written store.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteBackend opens (creating if needed) the database at dbPath.
// Use ":memory:" for a throwaway database.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteBackend{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Location returns the database path.
func (s *SQLiteBackend) Location() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

// Load reads all tables into a snapshot.
func (s *SQLiteBackend) Load(ctx context.Context) (*model.MemorySnapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	snapshot := model.NewMemorySnapshot()

	vendors, err := loadVendors(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptState, err)
	}
	snapshot.Vendors = vendors

	corrections, err := loadCorrections(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptState, err)
	}
	snapshot.Corrections = corrections

	ids, err := loadOrderedStrings(ctx, s.db, "processed_invoices", "invoice_id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptState, err)
	}
	snapshot.ProcessedInvoices = ids

	fingerprints, err := loadOrderedStrings(ctx, s.db, "invoice_fingerprints", "fingerprint")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptState, err)
	}
	snapshot.InvoiceFingerprints = fingerprints

	snapshot.Normalize()
	return snapshot, nil
}

// Save replaces the stored state with snapshot.
func (s *SQLiteBackend) Save(ctx context.Context, snapshot *model.MemorySnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"vendor_patterns", "vendor_defaults", "vendors", "correction_memories", "processed_invoices", "invoice_fingerprints"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := saveVendors(ctx, tx, snapshot.Vendors); err != nil {
		return err
	}
	if err := saveCorrections(ctx, tx, snapshot.Corrections); err != nil {
		return err
	}
	if err := saveOrderedStrings(ctx, tx, "processed_invoices", "invoice_id", snapshot.ProcessedInvoices); err != nil {
		return err
	}
	if err := saveOrderedStrings(ctx, tx, "invoice_fingerprints", "fingerprint", snapshot.InvoiceFingerprints); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit memory: %w", err)
	}
	return nil
}
