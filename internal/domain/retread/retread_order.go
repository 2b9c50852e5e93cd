package retread

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

const (
	aggregateTypeRetreadOrder  = "RetreadOrder"
	entityTypeRetreadOrderItem = "RetreadOrderItem"
)

// OrderStatus is the status of a retread order
type OrderStatus string

const (
	StatusDraft             OrderStatus = "DRAFT"
	StatusPendingApproval   OrderStatus = "PENDING_APPROVAL"
	StatusApproved          OrderStatus = "APPROVED"
	StatusSent              OrderStatus = "SENT"
	StatusPartiallyReceived OrderStatus = "PARTIALLY_RECEIVED"
	StatusFullyReceived     OrderStatus = "FULLY_RECEIVED"
	StatusClosed            OrderStatus = "CLOSED"
	StatusCancelled         OrderStatus = "CANCELLED"
)

// IsValid checks if the status is known
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusSent,
		StatusPartiallyReceived, StatusFullyReceived, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// CanSend returns true while the order has not left the depot
func (s OrderStatus) CanSend() bool {
	return s == StatusDraft || s == StatusPendingApproval || s == StatusApproved
}

// CanReceive returns true while outcomes may still be recorded
func (s OrderStatus) CanReceive() bool {
	return s == StatusSent || s == StatusPartiallyReceived
}

// IsOpen reports whether tires on the order are still bound to it
func (s OrderStatus) IsOpen() bool {
	return s != StatusCancelled && s != StatusClosed && s != StatusFullyReceived
}

// Outcome is the result the retreader reports for one tire
type Outcome string

const (
	OutcomePending  Outcome = "PENDING"
	OutcomeAccepted Outcome = "ACCEPTED"
	OutcomeRejected Outcome = "REJECTED"
)

// IsFinal reports whether the outcome is ACCEPTED or REJECTED
func (o Outcome) IsFinal() bool {
	return o == OutcomeAccepted || o == OutcomeRejected
}

// OrderItem binds one tire to a retread order
type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	TireID          uuid.UUID
	QuotedCost      decimal.Decimal
	Outcome         Outcome
	RetreadCost     decimal.Decimal
	ResultTireID    *uuid.UUID
	RejectionReason string
	ReceiptID       *uuid.UUID
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasOutcome reports whether the retreader already reported on this tire
func (i *OrderItem) HasOutcome() bool {
	return i.Outcome.IsFinal()
}

// Order is a batch of tires sent to one retread supplier
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber string
	SupplierID  uuid.UUID
	Status      OrderStatus
	RequestedBy uuid.UUID
	SentBy      *uuid.UUID
	SentAt      *time.Time
	Notes       string
	Items       []*OrderItem
}

// NewOrder creates a DRAFT retread order
func NewOrder(clock shared.Clock, orderNumber string, supplierID, requestedBy uuid.UUID, notes string) (*Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "order number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "retread supplier is required")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "requester is required")
	}
	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(clock),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		Status:            StatusDraft,
		RequestedBy:       requestedBy,
		Notes:             notes,
		Items:             make([]*OrderItem, 0),
	}
	order.AddDomainEvent(NewOrderCreatedEvent(order))
	return order, nil
}

// AddTire binds a tire to the order. A tire may appear only once.
func (o *Order) AddTire(tireID uuid.UUID, quotedCost decimal.Decimal, at time.Time) (*OrderItem, error) {
	if o.Status != StatusDraft {
		return nil, shared.NewStateConflictError(aggregateTypeRetreadOrder, o.ID.String(), string(o.Status), "ADD_TIRE",
			"tires can only be added to a draft order")
	}
	if tireID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "tire id is required")
	}
	if quotedCost.IsNegative() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "quoted cost cannot be negative")
	}
	if o.ItemForTire(tireID) != nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "tire appears twice on the order").
			WithEntity("Tire", tireID.String())
	}
	item := &OrderItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		TireID:      tireID,
		QuotedCost:  quotedCost.Round(2),
		Outcome:     OutcomePending,
		RetreadCost: decimal.Zero,
		Version:     1,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	o.Items = append(o.Items, item)
	o.Touch(at)
	return item, nil
}

// Send moves the order to SENT. The caller moves every bound tire to the retreader.
func (o *Order) Send(actorID uuid.UUID, at time.Time) error {
	if !o.Status.CanSend() {
		return shared.NewStateConflictError(aggregateTypeRetreadOrder, o.ID.String(), string(o.Status), string(StatusSent),
			"order cannot be sent from its current status")
	}
	if len(o.Items) == 0 {
		return shared.NewValidationError(shared.CodeInvalidInput, "cannot send an order without tires").
			WithEntity(aggregateTypeRetreadOrder, o.ID.String())
	}
	previous := o.Status
	o.Status = StatusSent
	o.SentBy = &actorID
	o.SentAt = &at
	o.Touch(at)
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))
	return nil
}

// Cancel cancels an order that has not been sent
func (o *Order) Cancel(at time.Time) error {
	if !o.Status.CanSend() {
		return shared.NewStateConflictError(aggregateTypeRetreadOrder, o.ID.String(), string(o.Status), string(StatusCancelled),
			"only orders not yet sent can be cancelled")
	}
	previous := o.Status
	o.Status = StatusCancelled
	o.Touch(at)
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))
	return nil
}

// Close closes an order once every line has an outcome. A partially received
// order still has tires at the retreader and stays open.
func (o *Order) Close(at time.Time) error {
	if o.Status != StatusFullyReceived {
		return shared.NewStateConflictError(aggregateTypeRetreadOrder, o.ID.String(), string(o.Status), string(StatusClosed),
			"only fully received orders can be closed")
	}
	previous := o.Status
	o.Status = StatusClosed
	o.Touch(at)
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))
	return nil
}

// RecordOutcome stores the retreader's verdict on one line. A line takes exactly one outcome.
func (o *Order) RecordOutcome(itemID uuid.UUID, outcome Outcome, cost decimal.Decimal, reason string, receiptID uuid.UUID, at time.Time) (*OrderItem, error) {
	if !o.Status.CanReceive() {
		return nil, shared.NewStateConflictError(aggregateTypeRetreadOrder, o.ID.String(), string(o.Status), "RECEIVE",
			"order is not at the retreader")
	}
	if !outcome.IsFinal() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "outcome must be ACCEPTED or REJECTED")
	}
	item := o.GetItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError(entityTypeRetreadOrderItem, itemID.String())
	}
	if item.HasOutcome() {
		return nil, shared.NewStateConflictError(entityTypeRetreadOrderItem, item.ID.String(), string(item.Outcome), string(outcome),
			"line already has an outcome")
	}
	switch outcome {
	case OutcomeAccepted:
		if cost.IsNegative() {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "retread cost cannot be negative")
		}
		item.RetreadCost = cost.Round(2)
	case OutcomeRejected:
		item.RejectionReason = strings.TrimSpace(reason)
	}
	item.Outcome = outcome
	item.ReceiptID = &receiptID
	item.UpdatedAt = at
	o.Touch(at)
	return item, nil
}

// DeriveReceiptStatus sets the status from the count of lines with an outcome
func (o *Order) DeriveReceiptStatus() {
	done := 0
	for _, it := range o.Items {
		if it.HasOutcome() {
			done++
		}
	}
	switch shared.DeriveReceivingProgress(len(o.Items), done) {
	case shared.ReceivingPartial:
		o.Status = StatusPartiallyReceived
	case shared.ReceivingFull:
		o.Status = StatusFullyReceived
	}
}

// GetItem returns the line with the given id, nil if absent
func (o *Order) GetItem(itemID uuid.UUID) *OrderItem {
	for _, it := range o.Items {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}

// ItemForTire returns the line binding a tire, nil if absent
func (o *Order) ItemForTire(tireID uuid.UUID) *OrderItem {
	for _, it := range o.Items {
		if it.TireID == tireID {
			return it
		}
	}
	return nil
}

// PendingCount returns the number of lines without an outcome
func (o *Order) PendingCount() int {
	n := 0
	for _, it := range o.Items {
		if !it.HasOutcome() {
			n++
		}
	}
	return n
}
