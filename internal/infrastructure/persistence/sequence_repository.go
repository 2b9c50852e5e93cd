package persistence

import (
	"context"
	"time"

	"github.com/tyrefleet/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSequenceGenerator allocates document numbers from the document_sequences table.
// The upsert takes a row lock, so concurrent transactions serialize per prefix and period.
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

const nextSequenceSQL = `INSERT INTO document_sequences (prefix, period, last_value, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT (prefix, period) DO UPDATE
SET last_value = document_sequences.last_value + 1, updated_at = excluded.updated_at
RETURNING last_value`

func (g *GormSequenceGenerator) Next(ctx context.Context, prefix shared.DocumentPrefix, at time.Time) (string, error) {
	var value int64
	if err := g.db.WithContext(ctx).
		Raw(nextSequenceSQL, string(prefix), shared.SequencePeriod(at), time.Now().UTC()).
		Scan(&value).Error; err != nil {
		return "", classify(err)
	}
	return shared.FormatDocumentNumber(prefix, at, value), nil
}

var _ shared.SequenceGenerator = (*GormSequenceGenerator)(nil)
