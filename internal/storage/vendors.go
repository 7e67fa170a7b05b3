package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/invoice-memory/internal/model"
)

func loadVendors(ctx context.Context, q queryable) (map[string]*model.VendorMemory, error) {
	vendors := make(map[string]*model.VendorMemory)

	rows, err := q.QueryContext(ctx, `SELECT name FROM vendors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors[name] = model.NewVendorMemory(name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadVendorPatterns(ctx, q, vendors); err != nil {
		return nil, err
	}
	if err := loadVendorDefaults(ctx, q, vendors); err != nil {
		return nil, err
	}

	return vendors, nil
}

func loadVendorPatterns(ctx context.Context, q queryable, vendors map[string]*model.VendorMemory) error {
	rows, err := q.QueryContext(ctx, `
		SELECT vendor, field, pattern, confidence, frequency, last_seen
		FROM vendor_patterns
	`)
	if err != nil {
		return fmt.Errorf("failed to query vendor patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			vendor, field, lastSeen string
			entry                   model.PatternEntry
		)
		if err := rows.Scan(&vendor, &field, &entry.Pattern, &entry.Confidence, &entry.Frequency, &lastSeen); err != nil {
			return fmt.Errorf("failed to scan vendor pattern: %w", err)
		}

		entry.LastSeen, err = time.Parse(time.RFC3339Nano, lastSeen)
		if err != nil {
			return fmt.Errorf("vendor pattern %s/%s has invalid last_seen %q: %w", vendor, field, lastSeen, err)
		}

		vm, ok := vendors[vendor]
		if !ok {
			vm = model.NewVendorMemory(vendor)
			vendors[vendor] = vm
		}
		vm.Patterns[field] = &entry
	}

	return rows.Err()
}

func loadVendorDefaults(ctx context.Context, q queryable, vendors map[string]*model.VendorMemory) error {
	rows, err := q.QueryContext(ctx, `SELECT vendor, field, value FROM vendor_defaults`)
	if err != nil {
		return fmt.Errorf("failed to query vendor defaults: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var vendor, field, value string
		if err := rows.Scan(&vendor, &field, &value); err != nil {
			return fmt.Errorf("failed to scan vendor default: %w", err)
		}

		vm, ok := vendors[vendor]
		if !ok {
			vm = model.NewVendorMemory(vendor)
			vendors[vendor] = vm
		}
		vm.Defaults[field] = value
	}

	return rows.Err()
}

func saveVendors(ctx context.Context, tx *sql.Tx, vendors map[string]*model.VendorMemory) error {
	names := make([]string, 0, len(vendors))
	for name, vm := range vendors {
		if vm != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		vm := vendors[name]

		if _, err := tx.ExecContext(ctx, `INSERT INTO vendors (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("failed to save vendor %q: %w", name, err)
		}

		for field, entry := range vm.Patterns {
			if entry == nil {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO vendor_patterns (vendor, field, pattern, confidence, frequency, last_seen)
				VALUES (?, ?, ?, ?, ?, ?)
			`, name, field, entry.Pattern, entry.Confidence, entry.Frequency, entry.LastSeen.UTC().Format(time.RFC3339Nano))
			if err != nil {
				return fmt.Errorf("failed to save pattern %s/%s: %w", name, field, err)
			}
		}

		for field, value := range vm.Defaults {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO vendor_defaults (vendor, field, value) VALUES (?, ?, ?)
			`, name, field, value)
			if err != nil {
				return fmt.Errorf("failed to save default %s/%s: %w", name, field, err)
			}
		}
	}

	return nil
}
