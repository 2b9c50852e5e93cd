package stock

import (
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// Event types published by the stock aggregator
const (
	EventTypeStockBelowReorderLevel = "StockBelowReorderLevel"
	EventTypeStockDriftCorrected    = "StockDriftCorrected"
)

const aggregateTypeCatalogItem = "CatalogItem"

// StockBelowReorderLevelEvent is published when a delta leaves a key at or below its reorder level
type StockBelowReorderLevelEvent struct {
	shared.BaseDomainEvent
	Key             asset.StockKey `json:"key"`
	CurrentStock    int64          `json:"current_stock"`
	ReorderLevel    int64          `json:"reorder_level"`
	ReorderQuantity int64          `json:"reorder_quantity"`
}

// NewStockBelowReorderLevelEvent builds the event from a counter row
func NewStockBelowReorderLevelEvent(item *CatalogItem) *StockBelowReorderLevelEvent {
	return &StockBelowReorderLevelEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowReorderLevel, aggregateTypeCatalogItem, item.ID, item.UpdatedAt),
		Key:             item.Key,
		CurrentStock:    item.CurrentStock,
		ReorderLevel:    item.ReorderLevel,
		ReorderQuantity: item.ReorderQuantity,
	}
}

// StockDriftCorrectedEvent is published when reconciliation rewrites a counter
type StockDriftCorrectedEvent struct {
	shared.BaseDomainEvent
	Key    asset.StockKey `json:"key"`
	Cached int64          `json:"cached"`
	Actual int64          `json:"actual"`
}

// NewStockDriftCorrectedEvent builds the event from a drift
func NewStockDriftCorrectedEvent(item *CatalogItem, d Drift) *StockDriftCorrectedEvent {
	return &StockDriftCorrectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDriftCorrected, aggregateTypeCatalogItem, item.ID, item.UpdatedAt),
		Key:             d.Key,
		Cached:          d.Cached,
		Actual:          d.Actual,
	}
}
