package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/purchasing"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber  string                         `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID                      `gorm:"type:uuid;not null;index"`
	Status       purchasing.PurchaseOrderStatus `gorm:"type:varchar(30);not null;default:'DRAFT';index"`
	OrderDate    time.Time                      `gorm:"not null"`
	ExpectedDate *time.Time
	RequestedBy  uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy   *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt   *time.Time
	Notes        string                    `gorm:"type:text"`
	TotalAmount  decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	Items        []*PurchaseOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *purchasing.PurchaseOrder {
	items := make([]*purchasing.PurchaseOrderItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = it.ToDomain()
	}
	return &purchasing.PurchaseOrder{
		BaseAggregateRoot: m.AggregateRoot(),
		OrderNumber:       m.OrderNumber,
		SupplierID:        m.SupplierID,
		Status:            m.Status,
		OrderDate:         m.OrderDate,
		ExpectedDate:      m.ExpectedDate,
		RequestedBy:       m.RequestedBy,
		ApprovedBy:        m.ApprovedBy,
		ApprovedAt:        m.ApprovedAt,
		Notes:             m.Notes,
		TotalAmount:       m.TotalAmount,
		Items:             items,
	}
}

// PurchaseOrderModelFromDomain creates the header model. Items are saved separately.
func PurchaseOrderModelFromDomain(o *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		OrderNumber:  o.OrderNumber,
		SupplierID:   o.SupplierID,
		Status:       o.Status,
		OrderDate:    o.OrderDate,
		ExpectedDate: o.ExpectedDate,
		RequestedBy:  o.RequestedBy,
		ApprovedBy:   o.ApprovedBy,
		ApprovedAt:   o.ApprovedAt,
		Notes:        o.Notes,
		TotalAmount:  o.TotalAmount,
	}
	m.SetAggregateRoot(o.BaseAggregateRoot)
	return m
}

// PurchaseOrderItemModel is one purchase order line. Version guards concurrent receipts.
type PurchaseOrderItemModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Size             string          `gorm:"type:varchar(50);not null"`
	Brand            string          `gorm:"type:varchar(100);not null"`
	TireModelName    string          `gorm:"column:model;type:varchar(100);not null"`
	Quantity         int             `gorm:"not null"`
	ReceivedQuantity int             `gorm:"not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Version          int             `gorm:"not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem
func (m *PurchaseOrderItemModel) ToDomain() *purchasing.PurchaseOrderItem {
	return &purchasing.PurchaseOrderItem{
		ID:               m.ID,
		OrderID:          m.OrderID,
		Spec:             asset.Spec{Size: m.Size, Brand: m.Brand, Model: m.TireModelName},
		Quantity:         m.Quantity,
		ReceivedQuantity: m.ReceivedQuantity,
		UnitPrice:        m.UnitPrice,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// PurchaseOrderItemModelFromDomain creates a persistence model from a domain line
func PurchaseOrderItemModelFromDomain(i *purchasing.PurchaseOrderItem) *PurchaseOrderItemModel {
	return &PurchaseOrderItemModel{
		ID:               i.ID,
		OrderID:          i.OrderID,
		Size:             i.Spec.Size,
		Brand:            i.Spec.Brand,
		TireModelName:    i.Spec.Model,
		Quantity:         i.Quantity,
		ReceivedQuantity: i.ReceivedQuantity,
		UnitPrice:        i.UnitPrice,
		Version:          i.Version,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

// GoodsReceiptModel is the persistence model for a GRN
type GoodsReceiptModel struct {
	ID                      uuid.UUID                `gorm:"type:uuid;primary_key"`
	ReceiptNumber           string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	PurchaseOrderID         uuid.UUID                `gorm:"type:uuid;not null;index"`
	SupplierID              uuid.UUID                `gorm:"type:uuid;not null"`
	BatchRef                string                   `gorm:"type:varchar(100)"`
	ReceivedAt              time.Time                `gorm:"not null"`
	ReceivedBy              uuid.UUID                `gorm:"type:uuid;not null"`
	TotalCost               decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	AccountingTransactionID *uuid.UUID               `gorm:"type:uuid"`
	Items                   []*GoodsReceiptItemModel `gorm:"foreignKey:ReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (GoodsReceiptModel) TableName() string {
	return "goods_receipts"
}

// ToDomain converts the persistence model to a domain GoodsReceipt
func (m *GoodsReceiptModel) ToDomain() *purchasing.GoodsReceipt {
	items := make([]purchasing.GoodsReceiptItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = it.ToDomain()
	}
	return &purchasing.GoodsReceipt{
		ID:                      m.ID,
		ReceiptNumber:           m.ReceiptNumber,
		PurchaseOrderID:         m.PurchaseOrderID,
		SupplierID:              m.SupplierID,
		BatchRef:                m.BatchRef,
		ReceivedAt:              m.ReceivedAt,
		ReceivedBy:              m.ReceivedBy,
		TotalCost:               m.TotalCost,
		AccountingTransactionID: m.AccountingTransactionID,
		Items:                   items,
	}
}

// GoodsReceiptModelFromDomain creates the persistence model of a GRN and its items
func GoodsReceiptModelFromDomain(g *purchasing.GoodsReceipt) (*GoodsReceiptModel, error) {
	m := &GoodsReceiptModel{
		ID:                      g.ID,
		ReceiptNumber:           g.ReceiptNumber,
		PurchaseOrderID:         g.PurchaseOrderID,
		SupplierID:              g.SupplierID,
		BatchRef:                g.BatchRef,
		ReceivedAt:              g.ReceivedAt,
		ReceivedBy:              g.ReceivedBy,
		TotalCost:               g.TotalCost,
		AccountingTransactionID: g.AccountingTransactionID,
		Items:                   make([]*GoodsReceiptItemModel, len(g.Items)),
	}
	for i := range g.Items {
		item, err := GoodsReceiptItemModelFromDomain(&g.Items[i])
		if err != nil {
			return nil, err
		}
		m.Items[i] = item
	}
	return m, nil
}

// GoodsReceiptItemModel is the quantity of one line received on a GRN
type GoodsReceiptItemModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReceiptID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchaseOrderItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity            int             `gorm:"not null"`
	UnitCost            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SerialNumbers       string          `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (GoodsReceiptItemModel) TableName() string {
	return "goods_receipt_items"
}

// ToDomain converts the persistence model to a domain GoodsReceiptItem
func (m *GoodsReceiptItemModel) ToDomain() purchasing.GoodsReceiptItem {
	var serials []string
	_ = json.Unmarshal([]byte(m.SerialNumbers), &serials)
	return purchasing.GoodsReceiptItem{
		ID:                  m.ID,
		ReceiptID:           m.ReceiptID,
		PurchaseOrderItemID: m.PurchaseOrderItemID,
		Quantity:            m.Quantity,
		UnitCost:            m.UnitCost,
		SerialNumbers:       serials,
	}
}

// GoodsReceiptItemModelFromDomain creates a persistence model from a domain GRN item
func GoodsReceiptItemModelFromDomain(i *purchasing.GoodsReceiptItem) (*GoodsReceiptItemModel, error) {
	serials, err := json.Marshal(i.SerialNumbers)
	if err != nil {
		return nil, err
	}
	return &GoodsReceiptItemModel{
		ID:                  i.ID,
		ReceiptID:           i.ReceiptID,
		PurchaseOrderItemID: i.PurchaseOrderItemID,
		Quantity:            i.Quantity,
		UnitCost:            i.UnitCost,
		SerialNumbers:       string(serials),
	}, nil
}
