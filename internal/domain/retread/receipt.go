package retread

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// Receipt (RRN) records one delivery of outcomes from the retreader
type Receipt struct {
	ID                      uuid.UUID
	ReceiptNumber           string
	OrderID                 uuid.UUID
	SupplierID              uuid.UUID
	ReceivedAt              time.Time
	ReceivedBy              uuid.UUID
	Notes                   string
	AcceptedCount           int
	RejectedCount           int
	TotalCost               decimal.Decimal
	AccountingTransactionID *uuid.UUID
	Items                   []ReceiptItem
}

// ReceiptItem is one outcome on a receipt
type ReceiptItem struct {
	ID              uuid.UUID
	ReceiptID       uuid.UUID
	OrderItemID     uuid.UUID
	OriginalTireID  uuid.UUID
	Outcome         Outcome
	RetreadCost     decimal.Decimal
	ResultTireID    *uuid.UUID
	ResultSerial    string
	RejectionReason string
}

// NewReceipt creates an empty RRN for an order
func NewReceipt(number string, order *Order, receivedBy uuid.UUID, notes string, at time.Time) (*Receipt, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "receipt number cannot be empty")
	}
	if receivedBy == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "receiving actor is required")
	}
	return &Receipt{
		ID:            uuid.New(),
		ReceiptNumber: number,
		OrderID:       order.ID,
		SupplierID:    order.SupplierID,
		ReceivedAt:    at,
		ReceivedBy:    receivedBy,
		Notes:         notes,
		TotalCost:     decimal.Zero,
		Items:         make([]ReceiptItem, 0),
	}, nil
}

// Add appends an outcome recorded on the order line
func (r *Receipt) Add(item *OrderItem, resultTireID *uuid.UUID, resultSerial string) {
	ri := ReceiptItem{
		ID:              uuid.New(),
		ReceiptID:       r.ID,
		OrderItemID:     item.ID,
		OriginalTireID:  item.TireID,
		Outcome:         item.Outcome,
		RetreadCost:     item.RetreadCost,
		ResultTireID:    resultTireID,
		ResultSerial:    resultSerial,
		RejectionReason: item.RejectionReason,
	}
	r.Items = append(r.Items, ri)
	if item.Outcome == OutcomeAccepted {
		r.AcceptedCount++
		r.TotalCost = r.TotalCost.Add(item.RetreadCost).Round(2)
	} else {
		r.RejectedCount++
	}
}
