package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// ReceiptKind distinguishes goods receipts from retread receipts
type ReceiptKind string

const (
	ReceiptKindPurchase ReceiptKind = "PURCHASE_RECEIPT"
	ReceiptKindRetread  ReceiptKind = "RETREAD_RECEIPT"
)

// TransactionKind maps the receipt kind to the transaction it books
func (k ReceiptKind) TransactionKind() TransactionKind {
	if k == ReceiptKindRetread {
		return KindRetreadReceipt
	}
	return KindPurchaseReceipt
}

// LedgerKind maps the receipt kind to the supplier ledger entry it produces
func (k ReceiptKind) LedgerKind() LedgerEntryKind {
	if k == ReceiptKindRetread {
		return LedgerRetreadService
	}
	return LedgerPurchase
}

// ReceiptEvent is what a receiving workflow hands to the posting engine
type ReceiptEvent struct {
	Kind          ReceiptKind
	SupplierID    uuid.UUID
	Amount        decimal.Decimal
	ReceiptID     uuid.UUID
	ReceiptNumber string
	OrderID       uuid.UUID
	ActorID       uuid.UUID
	OccurredAt    time.Time
}

// Normalize validates the event and rounds its amount to 2 decimals
func (e ReceiptEvent) Normalize() (ReceiptEvent, error) {
	if e.Kind != ReceiptKindPurchase && e.Kind != ReceiptKindRetread {
		return e, shared.NewValidationError(shared.CodeInvalidInput, "unknown receipt kind "+string(e.Kind))
	}
	if e.SupplierID == uuid.Nil {
		return e, shared.NewValidationError(shared.CodeInvalidInput, "supplier is required")
	}
	if e.ReceiptID == uuid.Nil {
		return e, shared.NewValidationError(shared.CodeInvalidInput, "receipt reference is required")
	}
	e.Amount = e.Amount.Round(2)
	if !e.Amount.IsPositive() {
		return e, shared.NewValidationError(shared.CodeInvalidInput, "posting amount must be positive")
	}
	return e, nil
}

// Source returns the transaction source for the receipt
func (e ReceiptEvent) Source() Source {
	receiptID, orderID := e.ReceiptID, e.OrderID
	src := Source{ID: &receiptID, Number: e.ReceiptNumber}
	if orderID != uuid.Nil {
		src.OrderID = &orderID
	}
	return src
}
