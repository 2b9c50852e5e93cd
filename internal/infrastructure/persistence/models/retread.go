package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/retread"
)

// RetreadOrderModel is the persistence model for a retread order
type RetreadOrderModel struct {
	AggregateModel
	OrderNumber string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	Status      retread.OrderStatus `gorm:"type:varchar(30);not null;default:'DRAFT';index"`
	RequestedBy uuid.UUID           `gorm:"type:uuid;not null"`
	SentBy      *uuid.UUID          `gorm:"type:uuid"`
	SentAt      *time.Time
	Notes       string                   `gorm:"type:text"`
	Items       []*RetreadOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (RetreadOrderModel) TableName() string {
	return "retread_orders"
}

// ToDomain converts the persistence model to a domain retread Order
func (m *RetreadOrderModel) ToDomain() *retread.Order {
	items := make([]*retread.OrderItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = it.ToDomain()
	}
	return &retread.Order{
		BaseAggregateRoot: m.AggregateRoot(),
		OrderNumber:       m.OrderNumber,
		SupplierID:        m.SupplierID,
		Status:            m.Status,
		RequestedBy:       m.RequestedBy,
		SentBy:            m.SentBy,
		SentAt:            m.SentAt,
		Notes:             m.Notes,
		Items:             items,
	}
}

// RetreadOrderModelFromDomain creates the header model. Items are saved separately.
func RetreadOrderModelFromDomain(o *retread.Order) *RetreadOrderModel {
	m := &RetreadOrderModel{
		OrderNumber: o.OrderNumber,
		SupplierID:  o.SupplierID,
		Status:      o.Status,
		RequestedBy: o.RequestedBy,
		SentBy:      o.SentBy,
		SentAt:      o.SentAt,
		Notes:       o.Notes,
	}
	m.SetAggregateRoot(o.BaseAggregateRoot)
	return m
}

// RetreadOrderItemModel binds one tire to a retread order
type RetreadOrderItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	TireID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuotedCost      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Outcome         retread.Outcome `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RetreadCost     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ResultTireID    *uuid.UUID      `gorm:"type:uuid"`
	RejectionReason string          `gorm:"type:varchar(500)"`
	ReceiptID       *uuid.UUID      `gorm:"type:uuid"`
	Version         int             `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RetreadOrderItemModel) TableName() string {
	return "retread_order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *RetreadOrderItemModel) ToDomain() *retread.OrderItem {
	return &retread.OrderItem{
		ID:              m.ID,
		OrderID:         m.OrderID,
		TireID:          m.TireID,
		QuotedCost:      m.QuotedCost,
		Outcome:         m.Outcome,
		RetreadCost:     m.RetreadCost,
		ResultTireID:    m.ResultTireID,
		RejectionReason: m.RejectionReason,
		ReceiptID:       m.ReceiptID,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// RetreadOrderItemModelFromDomain creates a persistence model from a domain line
func RetreadOrderItemModelFromDomain(i *retread.OrderItem) *RetreadOrderItemModel {
	return &RetreadOrderItemModel{
		ID:              i.ID,
		OrderID:         i.OrderID,
		TireID:          i.TireID,
		QuotedCost:      i.QuotedCost,
		Outcome:         i.Outcome,
		RetreadCost:     i.RetreadCost,
		ResultTireID:    i.ResultTireID,
		RejectionReason: i.RejectionReason,
		ReceiptID:       i.ReceiptID,
		Version:         i.Version,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// RetreadReceiptModel is the persistence model for an RRN
type RetreadReceiptModel struct {
	ID                      uuid.UUID                  `gorm:"type:uuid;primary_key"`
	ReceiptNumber           string                     `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrderID                 uuid.UUID                  `gorm:"type:uuid;not null;index"`
	SupplierID              uuid.UUID                  `gorm:"type:uuid;not null"`
	ReceivedAt              time.Time                  `gorm:"not null"`
	ReceivedBy              uuid.UUID                  `gorm:"type:uuid;not null"`
	Notes                   string                     `gorm:"type:text"`
	AcceptedCount           int                        `gorm:"not null;default:0"`
	RejectedCount           int                        `gorm:"not null;default:0"`
	TotalCost               decimal.Decimal            `gorm:"type:decimal(18,2);not null;default:0"`
	AccountingTransactionID *uuid.UUID                 `gorm:"type:uuid"`
	Items                   []*RetreadReceiptItemModel `gorm:"foreignKey:ReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (RetreadReceiptModel) TableName() string {
	return "retread_receipts"
}

// ToDomain converts the persistence model to a domain Receipt
func (m *RetreadReceiptModel) ToDomain() *retread.Receipt {
	items := make([]retread.ReceiptItem, len(m.Items))
	for i, it := range m.Items {
		items[i] = retread.ReceiptItem{
			ID:              it.ID,
			ReceiptID:       it.ReceiptID,
			OrderItemID:     it.OrderItemID,
			OriginalTireID:  it.OriginalTireID,
			Outcome:         it.Outcome,
			RetreadCost:     it.RetreadCost,
			ResultTireID:    it.ResultTireID,
			ResultSerial:    it.ResultSerial,
			RejectionReason: it.RejectionReason,
		}
	}
	return &retread.Receipt{
		ID:                      m.ID,
		ReceiptNumber:           m.ReceiptNumber,
		OrderID:                 m.OrderID,
		SupplierID:              m.SupplierID,
		ReceivedAt:              m.ReceivedAt,
		ReceivedBy:              m.ReceivedBy,
		Notes:                   m.Notes,
		AcceptedCount:           m.AcceptedCount,
		RejectedCount:           m.RejectedCount,
		TotalCost:               m.TotalCost,
		AccountingTransactionID: m.AccountingTransactionID,
		Items:                   items,
	}
}

// RetreadReceiptModelFromDomain creates the persistence model of an RRN and its items
func RetreadReceiptModelFromDomain(r *retread.Receipt) *RetreadReceiptModel {
	m := &RetreadReceiptModel{
		ID:                      r.ID,
		ReceiptNumber:           r.ReceiptNumber,
		OrderID:                 r.OrderID,
		SupplierID:              r.SupplierID,
		ReceivedAt:              r.ReceivedAt,
		ReceivedBy:              r.ReceivedBy,
		Notes:                   r.Notes,
		AcceptedCount:           r.AcceptedCount,
		RejectedCount:           r.RejectedCount,
		TotalCost:               r.TotalCost,
		AccountingTransactionID: r.AccountingTransactionID,
		Items:                   make([]*RetreadReceiptItemModel, len(r.Items)),
	}
	for i, it := range r.Items {
		m.Items[i] = &RetreadReceiptItemModel{
			ID:              it.ID,
			ReceiptID:       it.ReceiptID,
			OrderItemID:     it.OrderItemID,
			OriginalTireID:  it.OriginalTireID,
			Outcome:         it.Outcome,
			RetreadCost:     it.RetreadCost,
			ResultTireID:    it.ResultTireID,
			ResultSerial:    it.ResultSerial,
			RejectionReason: it.RejectionReason,
		}
	}
	return m
}

// RetreadReceiptItemModel is one outcome on an RRN
type RetreadReceiptItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReceiptID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderItemID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	OriginalTireID  uuid.UUID       `gorm:"type:uuid;not null"`
	Outcome         retread.Outcome `gorm:"type:varchar(20);not null"`
	RetreadCost     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ResultTireID    *uuid.UUID      `gorm:"type:uuid"`
	ResultSerial    string          `gorm:"type:varchar(64)"`
	RejectionReason string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (RetreadReceiptItemModel) TableName() string {
	return "retread_receipt_items"
}
