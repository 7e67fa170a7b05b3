package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/invoice-memory/internal/model"
)

func loadCorrections(ctx context.Context, q queryable) ([]*model.CorrectionMemory, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT context, correction, confidence, success_count, fail_count
		FROM correction_memories
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	corrections := []*model.CorrectionMemory{}
	for rows.Next() {
		var c model.CorrectionMemory
		if err := rows.Scan(&c.Context, &c.Correction, &c.Confidence, &c.SuccessCount, &c.FailCount); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		corrections = append(corrections, &c)
	}

	return corrections, rows.Err()
}

func saveCorrections(ctx context.Context, tx *sql.Tx, corrections []*model.CorrectionMemory) error {
	for i, c := range corrections {
		if c == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO correction_memories (position, context, correction, confidence, success_count, fail_count)
			VALUES (?, ?, ?, ?, ?, ?)
		`, i, c.Context, c.Correction, c.Confidence, c.SuccessCount, c.FailCount)
		if err != nil {
			return fmt.Errorf("failed to save correction %q: %w", c.Context, err)
		}
	}
	return nil
}
