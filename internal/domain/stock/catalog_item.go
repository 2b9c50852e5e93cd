package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// CatalogItem is the denormalized stock counter for one stock key.
// CurrentStock is a cache over Tire rows and is only ever moved by relative deltas
// or rewritten by reconciliation.
type CatalogItem struct {
	ID              uuid.UUID
	Key             asset.StockKey
	CurrentStock    int64
	ReorderLevel    int64
	ReorderQuantity int64
	LastUnitCost    decimal.Decimal
	AverageCost     decimal.Decimal
	UpdatedAt       time.Time
}

// IsBelowReorderLevel reports whether the counter has reached the reorder point.
// A zero reorder level disables the check.
func (c *CatalogItem) IsBelowReorderLevel() bool {
	return c.ReorderLevel > 0 && c.CurrentStock <= c.ReorderLevel
}

// Thresholds are the reorder settings of a stock key
type Thresholds struct {
	ReorderLevel    int64
	ReorderQuantity int64
}

// Validate checks thresholds are non-negative
func (t Thresholds) Validate() error {
	if t.ReorderLevel < 0 || t.ReorderQuantity < 0 {
		return shared.NewValidationError(shared.CodeInvalidInput, "reorder thresholds cannot be negative")
	}
	return nil
}

// Delta is a relative change to a stock counter. UnitCost is set for incoming
// stock with a known cost and feeds the cost-tracking fields.
type Delta struct {
	Key      asset.StockKey
	Quantity int64
	UnitCost *decimal.Decimal
}

// MovingAverage returns the average cost after receiving qty units at unitCost on
// top of onHand units at avg. Non-positive totals keep the incoming cost.
func MovingAverage(onHand int64, avg decimal.Decimal, qty int64, unitCost decimal.Decimal) decimal.Decimal {
	if qty <= 0 {
		return avg
	}
	if onHand <= 0 {
		return unitCost.Round(4)
	}
	total := avg.Mul(decimal.NewFromInt(onHand)).Add(unitCost.Mul(decimal.NewFromInt(qty)))
	return total.Div(decimal.NewFromInt(onHand + qty)).Round(4)
}

// Drift is a difference found by reconciliation between the cached and actual count
type Drift struct {
	Key    asset.StockKey
	Cached int64
	Actual int64
}

// Difference returns actual minus cached
func (d Drift) Difference() int64 {
	return d.Actual - d.Cached
}
