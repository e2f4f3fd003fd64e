package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// SequenceRepository hands out the next document sequence value for a
// (document type, year) pair. Values are unique per pair.
type SequenceRepository interface {
	Next(ctx context.Context, docType string, year int) (int64, error)
}

// nextSequenceSQL upserts the counter row and increments it in one statement.
// A new row is seeded with the number of documents already issued for the
// pair, so numbering continues where count-based allocation left off.
const nextSequenceSQL = `INSERT INTO document_sequences (document_type, year, last_value, updated_at)
VALUES (?, ?, (SELECT COUNT(*) FROM documents WHERE document_type = ? AND created_at >= ? AND created_at < ?) + 1, CURRENT_TIMESTAMP)
ON CONFLICT (document_type, year) DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = CURRENT_TIMESTAMP
RETURNING last_value`

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository returns the counter-row backed sequence. Calls made
// inside RunInTx share the caller's transaction, so a rolled back document
// also rolls back its number.
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) Next(ctx context.Context, docType string, year int) (int64, error) {
	start, end := yearBounds(year)

	var value int64
	err := GetDB(ctx, r.db).
		Raw(nextSequenceSQL, docType, year, docType, start, end).
		Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("next sequence for %s/%d: %w", docType, year, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("next sequence for %s/%d: counter returned %d", docType, year, value)
	}
	return value, nil
}
