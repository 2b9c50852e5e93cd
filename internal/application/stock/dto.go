package stock

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/stock"
)

// StockKeyInput identifies a stock key in requests
type StockKeyInput struct {
	Size  string `json:"size" binding:"required,max=50,tire_size"`
	Brand string `json:"brand" binding:"required,min=1,max=100"`
	Model string `json:"model" binding:"required,min=1,max=100"`
	Kind  string `json:"kind" binding:"required,oneof=NEW RETREADED"`
}

// Key converts the input to a domain key
func (in StockKeyInput) Key() asset.StockKey {
	return asset.StockKey{Size: in.Size, Brand: in.Brand, Model: in.Model, Kind: asset.TireKind(in.Kind)}
}

// SetThresholdsRequest updates the reorder settings of a key
type SetThresholdsRequest struct {
	StockKeyInput
	ReorderLevel    int64 `json:"reorder_level" binding:"min=0"`
	ReorderQuantity int64 `json:"reorder_quantity" binding:"min=0"`
}

// ReconcileRequest limits a reconcile run to one key when Key is set
type ReconcileRequest struct {
	Key *StockKeyInput `json:"key"`
}

// StockItemResponse represents a stock counter in API responses
type StockItemResponse struct {
	Size            string          `json:"size"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	Kind            string          `json:"kind"`
	CurrentStock    int64           `json:"current_stock"`
	ReorderLevel    int64           `json:"reorder_level"`
	ReorderQuantity int64           `json:"reorder_quantity"`
	LastUnitCost    decimal.Decimal `json:"last_unit_cost"`
	AverageCost     decimal.Decimal `json:"average_cost"`
	BelowReorder    bool            `json:"below_reorder"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DriftResponse is one difference found by reconciliation
type DriftResponse struct {
	Key        string `json:"key"`
	Cached     int64  `json:"cached"`
	Actual     int64  `json:"actual"`
	Difference int64  `json:"difference"`
}

// ReconcileReport is the outcome of a reconcile run
type ReconcileReport struct {
	KeysChecked int             `json:"keys_checked"`
	Drifts      []DriftResponse `json:"drifts"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
}

// ToStockItemResponse converts a counter row to a response
func ToStockItemResponse(item *stock.CatalogItem) StockItemResponse {
	return StockItemResponse{
		Size:            item.Key.Size,
		Brand:           item.Key.Brand,
		Model:           item.Key.Model,
		Kind:            string(item.Key.Kind),
		CurrentStock:    item.CurrentStock,
		ReorderLevel:    item.ReorderLevel,
		ReorderQuantity: item.ReorderQuantity,
		LastUnitCost:    item.LastUnitCost,
		AverageCost:     item.AverageCost,
		BelowReorder:    item.IsBelowReorderLevel(),
		UpdatedAt:       item.UpdatedAt,
	}
}

func toDriftResponse(d stock.Drift) DriftResponse {
	return DriftResponse{
		Key:        d.Key.String(),
		Cached:     d.Cached,
		Actual:     d.Actual,
		Difference: d.Difference(),
	}
}
