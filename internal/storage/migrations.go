package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS vendors (
					name TEXT PRIMARY KEY
				)`,
				`CREATE TABLE IF NOT EXISTS vendor_patterns (
					vendor TEXT NOT NULL,
					field TEXT NOT NULL,
					pattern TEXT NOT NULL,
					confidence REAL NOT NULL,
					frequency INTEGER NOT NULL DEFAULT 1,
					last_seen TEXT NOT NULL,
					PRIMARY KEY (vendor, field),
					FOREIGN KEY (vendor) REFERENCES vendors(name)
				)`,
				`CREATE TABLE IF NOT EXISTS correction_memories (
					position INTEGER PRIMARY KEY,
					context TEXT UNIQUE NOT NULL,
					correction TEXT NOT NULL,
					confidence REAL NOT NULL,
					success_count INTEGER NOT NULL DEFAULT 0,
					fail_count INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE TABLE IF NOT EXISTS processed_invoices (
					position INTEGER PRIMARY KEY,
					invoice_id TEXT UNIQUE NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS invoice_fingerprints (
					position INTEGER PRIMARY KEY,
					fingerprint TEXT UNIQUE NOT NULL
				)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return err
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add vendor defaults",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS vendor_defaults (
				vendor TEXT NOT NULL,
				field TEXT NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY (vendor, field),
				FOREIGN KEY (vendor) REFERENCES vendors(name)
			)`)
			return err
		},
	},
}

// Migrate brings the database schema up to ExpectedSchemaVersion.
func (s *SQLiteBackend) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the current PRAGMA user_version.
func (s *SQLiteBackend) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
