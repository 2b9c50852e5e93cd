package purchasing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// Event types for the purchasing context
const (
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
	EventTypeGoodsReceived              = "GoodsReceived"
)

// PurchaseOrderCreatedEvent is raised when a purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	RequestedBy uuid.UUID `json:"requested_by"`
}

// NewPurchaseOrderCreatedEvent creates the event
func NewPurchaseOrderCreatedEvent(o *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, aggregateTypePurchaseOrder, o.ID, o.CreatedAt),
		OrderNumber:     o.OrderNumber,
		SupplierID:      o.SupplierID,
		RequestedBy:     o.RequestedBy,
	}
}

// PurchaseOrderStatusChangedEvent is raised on every manual status change
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string              `json:"order_number"`
	From        PurchaseOrderStatus `json:"from"`
	To          PurchaseOrderStatus `json:"to"`
}

// NewPurchaseOrderStatusChangedEvent creates the event
func NewPurchaseOrderStatusChangedEvent(o *PurchaseOrder, from PurchaseOrderStatus) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, aggregateTypePurchaseOrder, o.ID, o.UpdatedAt),
		OrderNumber:     o.OrderNumber,
		From:            from,
		To:              o.Status,
	}
}

// GoodsReceivedEvent is raised after a GRN commits
type GoodsReceivedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID           `json:"receipt_id"`
	ReceiptNumber string              `json:"receipt_number"`
	SupplierID    uuid.UUID           `json:"supplier_id"`
	Quantity      int                 `json:"quantity"`
	TotalCost     decimal.Decimal     `json:"total_cost"`
	OrderStatus   PurchaseOrderStatus `json:"order_status"`
}

// NewGoodsReceivedEvent creates the event
func NewGoodsReceivedEvent(o *PurchaseOrder, g *GoodsReceipt) *GoodsReceivedEvent {
	return &GoodsReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsReceived, aggregateTypePurchaseOrder, o.ID, g.ReceivedAt),
		ReceiptID:       g.ID,
		ReceiptNumber:   g.ReceiptNumber,
		SupplierID:      g.SupplierID,
		Quantity:        g.TotalQuantity(),
		TotalCost:       g.TotalCost,
		OrderStatus:     o.Status,
	}
}
