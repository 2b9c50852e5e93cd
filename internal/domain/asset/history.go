package asset

import (
	"context"
	"iter"

	"github.com/google/uuid"
)

// DefaultHistoryPageSize is the page size History uses when given a non-positive one
const DefaultHistoryPageSize = 100

// History lazily walks the movements of a tire in sequence order, starting after afterSeq.
// Pages are fetched on demand; ranging over the result again re-reads from the start,
// and the walk ends after the last committed movement.
func History(ctx context.Context, repo MovementRepository, tireID uuid.UUID, afterSeq int64, pageSize int) iter.Seq2[*Movement, error] {
	if pageSize <= 0 {
		pageSize = DefaultHistoryPageSize
	}
	return func(yield func(*Movement, error) bool) {
		cursor := afterSeq
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := repo.ListAfter(ctx, tireID, cursor, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for i := range page {
				m := page[i]
				if !yield(&m, nil) {
					return
				}
				cursor = m.Sequence
			}
			if len(page) < pageSize {
				return
			}
		}
	}
}
