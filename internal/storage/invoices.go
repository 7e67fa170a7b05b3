package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// loadOrderedStrings reads a single-column index table in insertion order.
// Table and column names are compile-time constants.
func loadOrderedStrings(ctx context.Context, q queryable, table, column string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY position`, column, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		values = append(values, value)
	}

	return values, rows.Err()
}

func saveOrderedStrings(ctx context.Context, tx *sql.Tx, table, column string, values []string) error {
	query := fmt.Sprintf(`INSERT OR IGNORE INTO %s (position, %s) VALUES (?, ?)`, table, column)
	for i, value := range values {
		if _, err := tx.ExecContext(ctx, query, i, value); err != nil {
			return fmt.Errorf("failed to save %s entry %q: %w", table, value, err)
		}
	}
	return nil
}
