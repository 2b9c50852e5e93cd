package retread

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

const (
	EventTypeRetreadOrderCreated       = "RetreadOrderCreated"
	EventTypeRetreadOrderStatusChanged = "RetreadOrderStatusChanged"
	EventTypeRetreadReceived           = "RetreadReceived"
)

// OrderCreatedEvent is raised when a retread order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	SupplierID  uuid.UUID `json:"supplier_id"`
}

// NewOrderCreatedEvent creates the event
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRetreadOrderCreated, aggregateTypeRetreadOrder, o.ID, o.CreatedAt),
		OrderNumber:     o.OrderNumber,
		SupplierID:      o.SupplierID,
	}
}

// OrderStatusChangedEvent is raised on send, cancel and close
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string      `json:"order_number"`
	From        OrderStatus `json:"from"`
	To          OrderStatus `json:"to"`
}

// NewOrderStatusChangedEvent creates the event
func NewOrderStatusChangedEvent(o *Order, from OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRetreadOrderStatusChanged, aggregateTypeRetreadOrder, o.ID, o.UpdatedAt),
		OrderNumber:     o.OrderNumber,
		From:            from,
		To:              o.Status,
	}
}

// ReceivedEvent is raised after an RRN commits
type ReceivedEvent struct {
	shared.BaseDomainEvent
	ReceiptID     uuid.UUID       `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Accepted      int             `json:"accepted"`
	Rejected      int             `json:"rejected"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	OrderStatus   OrderStatus     `json:"order_status"`
}

// NewReceivedEvent creates the event
func NewReceivedEvent(o *Order, r *Receipt) *ReceivedEvent {
	return &ReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRetreadReceived, aggregateTypeRetreadOrder, o.ID, r.ReceivedAt),
		ReceiptID:       r.ID,
		ReceiptNumber:   r.ReceiptNumber,
		Accepted:        r.AcceptedCount,
		Rejected:        r.RejectedCount,
		TotalCost:       r.TotalCost,
		OrderStatus:     o.Status,
	}
}
