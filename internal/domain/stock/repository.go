package stock

import (
	"context"

	"github.com/tyrefleet/backend/internal/domain/asset"
)

// CatalogRepository persists stock counters
type CatalogRepository interface {
	// ApplyDelta adds delta.Quantity to the counter of delta.Key with a relative update,
	// creating the row on first use, and returns the row after the change.
	ApplyDelta(ctx context.Context, delta Delta) (*CatalogItem, error)

	// FindByKey returns the counter row for a key, nil if none exists
	FindByKey(ctx context.Context, key asset.StockKey) (*CatalogItem, error)

	// FindByKeyForUpdate returns the counter row for a key and locks it until the
	// transaction ends, nil if none exists
	FindByKeyForUpdate(ctx context.Context, key asset.StockKey) (*CatalogItem, error)

	// List returns all counter rows
	List(ctx context.Context) ([]CatalogItem, error)

	// SetCount overwrites the counter of a key. Only reconciliation calls this.
	SetCount(ctx context.Context, key asset.StockKey, count int64) error

	// SetThresholds updates the reorder settings of a key, creating the row if needed
	SetThresholds(ctx context.Context, key asset.StockKey, thresholds Thresholds) (*CatalogItem, error)
}
