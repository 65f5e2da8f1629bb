package database

import (
	"context"
	"fmt"

	"github.com/snarg/scribe-engine/internal/jobs"
)

// ListForUser returns the user's custom vocabulary entries, oldest first.
func (db *DB) ListForUser(ctx context.Context, userID string) ([]jobs.VocabEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT word, phrases
		FROM custom_vocabulary
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list vocabulary: %w", err)
	}
	defer rows.Close()

	var entries []jobs.VocabEntry
	for rows.Next() {
		var e jobs.VocabEntry
		if err := rows.Scan(&e.Word, &e.Phrases); err != nil {
			return nil, fmt.Errorf("scan vocabulary: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
