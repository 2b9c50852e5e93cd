package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/stock"
)

// TireCatalogModel is the stock counter row of one (size, brand, model, kind) key
type TireCatalogModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	Size            string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_catalog_key,priority:1"`
	Brand           string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_catalog_key,priority:2"`
	TireModelName   string          `gorm:"column:model;type:varchar(100);not null;uniqueIndex:idx_catalog_key,priority:3"`
	Kind            asset.TireKind  `gorm:"type:varchar(20);not null;uniqueIndex:idx_catalog_key,priority:4"`
	CurrentStock    int64           `gorm:"not null;default:0"`
	ReorderLevel    int64           `gorm:"not null;default:0"`
	ReorderQuantity int64           `gorm:"not null;default:0"`
	LastUnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AverageCost     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TireCatalogModel) TableName() string {
	return "tire_catalog"
}

// Key returns the stock key of the row
func (m *TireCatalogModel) Key() asset.StockKey {
	return asset.StockKey{Size: m.Size, Brand: m.Brand, Model: m.TireModelName, Kind: m.Kind}
}

// ToDomain converts the persistence model to a domain CatalogItem
func (m *TireCatalogModel) ToDomain() *stock.CatalogItem {
	return &stock.CatalogItem{
		ID:              m.ID,
		Key:             m.Key(),
		CurrentStock:    m.CurrentStock,
		ReorderLevel:    m.ReorderLevel,
		ReorderQuantity: m.ReorderQuantity,
		LastUnitCost:    m.LastUnitCost,
		AverageCost:     m.AverageCost,
		UpdatedAt:       m.UpdatedAt,
	}
}

// NewTireCatalogModel creates an empty counter row for a key
func NewTireCatalogModel(key asset.StockKey, at time.Time) *TireCatalogModel {
	return &TireCatalogModel{
		ID:            uuid.New(),
		Size:          key.Size,
		Brand:         key.Brand,
		TireModelName: key.Model,
		Kind:          key.Kind,
		LastUnitCost:  decimal.Zero,
		AverageCost:   decimal.Zero,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}
