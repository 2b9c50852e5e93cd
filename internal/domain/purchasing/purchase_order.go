package purchasing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

const (
	aggregateTypePurchaseOrder  = "PurchaseOrder"
	entityTypePurchaseOrderItem = "PurchaseOrderItem"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	StatusDraft             PurchaseOrderStatus = "DRAFT"
	StatusPendingApproval   PurchaseOrderStatus = "PENDING_APPROVAL"
	StatusApproved          PurchaseOrderStatus = "APPROVED"
	StatusOrdered           PurchaseOrderStatus = "ORDERED"
	StatusPartiallyReceived PurchaseOrderStatus = "PARTIALLY_RECEIVED"
	StatusFullyReceived     PurchaseOrderStatus = "FULLY_RECEIVED"
	StatusClosed            PurchaseOrderStatus = "CLOSED"
	StatusCancelled         PurchaseOrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusOrdered,
		StatusPartiallyReceived, StatusFullyReceived, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsReceiptDerived reports whether the status is only ever set by receiving
func (s PurchaseOrderStatus) IsReceiptDerived() bool {
	return s == StatusPartiallyReceived || s == StatusFullyReceived
}

// CanTransitionTo checks the manual status transitions. Receipt-derived targets are never manual.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusPendingApproval || target == StatusCancelled
	case StatusPendingApproval:
		return target == StatusApproved || target == StatusDraft || target == StatusCancelled
	case StatusApproved:
		return target == StatusOrdered || target == StatusCancelled
	case StatusOrdered:
		return target == StatusCancelled
	case StatusPartiallyReceived, StatusFullyReceived:
		return target == StatusClosed
	case StatusClosed, StatusCancelled:
		return false
	}
	return false
}

// CanEditLines returns true while lines may be added, changed or removed
func (s PurchaseOrderStatus) CanEditLines() bool {
	return s == StatusDraft || s == StatusPendingApproval
}

// CanReceive returns true if receiving goods is allowed in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == StatusApproved || s == StatusOrdered || s == StatusPartiallyReceived
}

// CanDelete returns true if the order may be deleted
func (s PurchaseOrderStatus) CanDelete() bool {
	return s == StatusDraft || s == StatusCancelled
}

// PurchaseOrderItem is one ordered tire spec with its receipt progress
type PurchaseOrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	Spec             asset.Spec
	Quantity         int
	ReceivedQuantity int
	UnitPrice        decimal.Decimal
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPurchaseOrderItem creates a new purchase order line
func NewPurchaseOrderItem(orderID uuid.UUID, spec asset.Spec, quantity int, unitPrice decimal.Decimal, at time.Time) (*PurchaseOrderItem, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unit price cannot be negative")
	}
	return &PurchaseOrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		Spec:      spec,
		Quantity:  quantity,
		UnitPrice: unitPrice.Round(2),
		Version:   1,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

// RemainingQuantity returns how many units are still expected
func (i *PurchaseOrderItem) RemainingQuantity() int {
	return i.Quantity - i.ReceivedQuantity
}

// LineTotal returns quantity x unit price
func (i *PurchaseOrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Receive adds quantity to the received count. Zero or negative quantities and
// anything beyond the remaining quantity are rejected.
func (i *PurchaseOrderItem) Receive(quantity int, at time.Time) error {
	if err := i.checkReceive(quantity); err != nil {
		return err
	}
	i.ReceivedQuantity += quantity
	i.UpdatedAt = at
	return nil
}

func (i *PurchaseOrderItem) checkReceive(quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError(shared.CodeInvalidInput, "receive quantity must be positive").
			WithEntity(entityTypePurchaseOrderItem, i.ID.String())
	}
	if quantity > i.RemainingQuantity() {
		return shared.NewOverReceiptError(i.ID.String(), i.RemainingQuantity(), quantity)
	}
	return nil
}

// Update changes quantity and price. Quantity may not drop below what was received.
func (i *PurchaseOrderItem) Update(quantity int, unitPrice decimal.Decimal, at time.Time) error {
	if quantity <= 0 {
		return shared.NewValidationError(shared.CodeInvalidInput, "quantity must be positive")
	}
	if quantity < i.ReceivedQuantity {
		return shared.NewStateConflictError(entityTypePurchaseOrderItem, i.ID.String(),
			"received="+itoa(i.ReceivedQuantity), "quantity="+itoa(quantity),
			"quantity cannot drop below received quantity")
	}
	if unitPrice.IsNegative() {
		return shared.NewValidationError(shared.CodeInvalidInput, "unit price cannot be negative")
	}
	i.Quantity = quantity
	i.UnitPrice = unitPrice.Round(2)
	i.UpdatedAt = at
	return nil
}

// PurchaseOrder is the purchasing aggregate root
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string
	SupplierID   uuid.UUID
	Status       PurchaseOrderStatus
	OrderDate    time.Time
	ExpectedDate *time.Time
	RequestedBy  uuid.UUID
	ApprovedBy   *uuid.UUID
	ApprovedAt   *time.Time
	Notes        string
	TotalAmount  decimal.Decimal
	Items        []*PurchaseOrderItem
}

// NewPurchaseOrder creates a DRAFT purchase order
func NewPurchaseOrder(clock shared.Clock, orderNumber string, supplierID, requestedBy uuid.UUID) (*PurchaseOrder, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "order number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "supplier is required")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "requester is required")
	}
	root := shared.NewBaseAggregateRoot(clock)
	order := &PurchaseOrder{
		BaseAggregateRoot: root,
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		Status:            StatusDraft,
		OrderDate:         root.CreatedAt,
		RequestedBy:       requestedBy,
		TotalAmount:       decimal.Zero,
		Items:             make([]*PurchaseOrderItem, 0),
	}
	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))
	return order, nil
}

// AddItem appends a line while the order is editable
func (o *PurchaseOrder) AddItem(spec asset.Spec, quantity int, unitPrice decimal.Decimal, at time.Time) (*PurchaseOrderItem, error) {
	if err := o.ensureEditable("ADD_LINE"); err != nil {
		return nil, err
	}
	item, err := NewPurchaseOrderItem(o.ID, spec, quantity, unitPrice, at)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, item)
	o.recalculateTotals()
	o.Touch(at)
	return item, nil
}

// UpdateItem changes a line while the order is editable
func (o *PurchaseOrder) UpdateItem(itemID uuid.UUID, quantity int, unitPrice decimal.Decimal, at time.Time) (*PurchaseOrderItem, error) {
	if err := o.ensureEditable("UPDATE_LINE"); err != nil {
		return nil, err
	}
	item := o.GetItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError(entityTypePurchaseOrderItem, itemID.String())
	}
	if err := item.Update(quantity, unitPrice, at); err != nil {
		return nil, err
	}
	o.recalculateTotals()
	o.Touch(at)
	return item, nil
}

// RemoveItem deletes a line. Lines with receipts or with tires tracing lineage to them stay.
func (o *PurchaseOrder) RemoveItem(itemID uuid.UUID, lineageCount int64, at time.Time) error {
	if err := o.ensureEditable("DELETE_LINE"); err != nil {
		return err
	}
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewNotFoundError(entityTypePurchaseOrderItem, itemID.String())
	}
	if item.ReceivedQuantity > 0 {
		return shared.NewStateConflictError(entityTypePurchaseOrderItem, itemID.String(),
			"received="+itoa(item.ReceivedQuantity), "DELETE_LINE", "line has receipts")
	}
	if lineageCount > 0 {
		return shared.NewStateConflictError(entityTypePurchaseOrderItem, itemID.String(),
			"tires="+itoa(int(lineageCount)), "DELETE_LINE", "tires trace lineage to this line")
	}
	kept := make([]*PurchaseOrderItem, 0, len(o.Items)-1)
	for _, it := range o.Items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	o.Items = kept
	o.recalculateTotals()
	o.Touch(at)
	return nil
}

// ChangeStatus applies a manual status change. Approval rules (distinct approver holding
// the approve capability) are checked by the caller, who knows the actor.
// It returns false when the order already has the target status.
func (o *PurchaseOrder) ChangeStatus(target PurchaseOrderStatus, approverID *uuid.UUID, at time.Time) (bool, error) {
	if !target.IsValid() {
		return false, shared.NewInvalidStatusError(aggregateTypePurchaseOrder, o.ID.String(), string(o.Status), string(target))
	}
	if target == o.Status {
		return false, nil
	}
	if target.IsReceiptDerived() {
		return false, shared.NewStateConflictError(aggregateTypePurchaseOrder, o.ID.String(), string(o.Status), string(target),
			"receipt statuses are derived from receiving")
	}
	if !o.Status.CanTransitionTo(target) {
		return false, shared.NewStateConflictError(aggregateTypePurchaseOrder, o.ID.String(), string(o.Status), string(target),
			"status transition not allowed")
	}
	if target == StatusCancelled && o.TotalReceivedQuantity() > 0 {
		return false, shared.NewStateConflictError(aggregateTypePurchaseOrder, o.ID.String(), string(o.Status), string(target),
			"cannot cancel an order with receipts")
	}
	if target == StatusPendingApproval && len(o.Items) == 0 {
		return false, shared.NewValidationError(shared.CodeInvalidInput, "cannot submit an order without lines").
			WithEntity(aggregateTypePurchaseOrder, o.ID.String())
	}

	previous := o.Status
	o.Status = target
	if target == StatusApproved {
		o.ApprovedBy = approverID
		o.ApprovedAt = &at
	}
	if target == StatusDraft {
		o.ApprovedBy = nil
		o.ApprovedAt = nil
	}
	o.Touch(at)
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, previous))
	return true, nil
}

// ReceiveItem records a receipt against one line and re-derives the header status.
// Quantity is checked before status, so receiving more than is left is always
// OVER_RECEIPT, also on a fully received order.
func (o *PurchaseOrder) ReceiveItem(itemID uuid.UUID, quantity int, at time.Time) (*PurchaseOrderItem, error) {
	item := o.GetItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError(entityTypePurchaseOrderItem, itemID.String())
	}
	if err := item.checkReceive(quantity); err != nil {
		return nil, err
	}
	if !o.Status.CanReceive() {
		return nil, shared.NewStateConflictError(aggregateTypePurchaseOrder, o.ID.String(), string(o.Status), "RECEIVE",
			"order is not open for receiving")
	}
	if err := item.Receive(quantity, at); err != nil {
		return nil, err
	}
	o.DeriveReceiptStatus()
	o.Touch(at)
	return item, nil
}

// DeriveReceiptStatus sets the header status from line totals:
// nothing received leaves it unchanged, some is PARTIALLY_RECEIVED, all is FULLY_RECEIVED.
func (o *PurchaseOrder) DeriveReceiptStatus() {
	switch shared.DeriveReceivingProgress(o.TotalOrderedQuantity(), o.TotalReceivedQuantity()) {
	case shared.ReceivingPartial:
		o.Status = StatusPartiallyReceived
	case shared.ReceivingFull:
		o.Status = StatusFullyReceived
	}
}

// EnsureDeletable rejects deletion outside DRAFT and CANCELLED
func (o *PurchaseOrder) EnsureDeletable() error {
	if !o.Status.CanDelete() {
		return shared.NewStateConflictError(aggregateTypePurchaseOrder, o.ID.String(), string(o.Status), "DELETE",
			"only draft or cancelled orders can be deleted")
	}
	return nil
}

func (o *PurchaseOrder) ensureEditable(action string) error {
	if !o.Status.CanEditLines() {
		return shared.NewStateConflictError(aggregateTypePurchaseOrder, o.ID.String(), string(o.Status), action,
			"lines can only change while the order is draft or pending approval")
	}
	return nil
}

func (o *PurchaseOrder) recalculateTotals() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	o.TotalAmount = total.Round(2)
}

// GetItem returns the line with the given id, nil if absent
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *PurchaseOrderItem {
	for _, it := range o.Items {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}

// TotalOrderedQuantity returns the sum of line quantities
func (o *PurchaseOrder) TotalOrderedQuantity() int {
	total := 0
	for _, it := range o.Items {
		total += it.Quantity
	}
	return total
}

// TotalReceivedQuantity returns the sum of line received quantities
func (o *PurchaseOrder) TotalReceivedQuantity() int {
	total := 0
	for _, it := range o.Items {
		total += it.ReceivedQuantity
	}
	return total
}
