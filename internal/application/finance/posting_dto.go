package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/finance"
)

// PostReceiptRequest names a stored receipt that its workflow left unposted.
// SupplierID and Amount are optional cross-checks against the stored receipt.
type PostReceiptRequest struct {
	Kind       string           `json:"kind" binding:"required,oneof=PURCHASE_RECEIPT RETREAD_RECEIPT"`
	ReceiptID  uuid.UUID        `json:"receipt_id" binding:"required"`
	SupplierID *uuid.UUID       `json:"supplier_id"`
	Amount     *decimal.Decimal `json:"amount"`
}

// ToEvent converts the request to a receipt event
func (r PostReceiptRequest) ToEvent(actorID uuid.UUID, at time.Time) finance.ReceiptEvent {
	ev := finance.ReceiptEvent{
		Kind:       finance.ReceiptKind(r.Kind),
		ReceiptID:  r.ReceiptID,
		ActorID:    actorID,
		OccurredAt: at,
	}
	if r.SupplierID != nil {
		ev.SupplierID = *r.SupplierID
	}
	if r.Amount != nil {
		ev.Amount = *r.Amount
	}
	return ev
}

// SupplierPaymentRequest records money paid to a supplier
type SupplierPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference" binding:"required,min=1,max=100"`
}

// PostingResponse describes a posted accounting transaction
type PostingResponse struct {
	TransactionID     uuid.UUID       `json:"transaction_id"`
	TransactionNumber string          `json:"transaction_number"`
	Kind              string          `json:"kind"`
	SupplierID        uuid.UUID       `json:"supplier_id"`
	Amount            decimal.Decimal `json:"amount"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	PostedAt          time.Time       `json:"posted_at"`
}

// BalanceResponse compares a supplier's balance with its ledger
type BalanceResponse struct {
	SupplierID uuid.UUID       `json:"supplier_id"`
	Balance    decimal.Decimal `json:"balance"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Entries    int64           `json:"entries"`
	Difference decimal.Decimal `json:"difference"`
	Consistent bool            `json:"consistent"`
}

func toPostingResponse(tx *finance.Transaction, balance decimal.Decimal) PostingResponse {
	return PostingResponse{
		TransactionID:     tx.ID,
		TransactionNumber: tx.TransactionNumber,
		Kind:              string(tx.Kind),
		SupplierID:        tx.SupplierID,
		Amount:            tx.Amount,
		BalanceAfter:      balance,
		PostedAt:          tx.PostedAt,
	}
}

// ToBalanceResponse converts a balance check
func ToBalanceResponse(c finance.BalanceCheck) BalanceResponse {
	return BalanceResponse{
		SupplierID: c.SupplierID,
		Balance:    c.Balance,
		LedgerSum:  c.LedgerSum,
		Entries:    c.Entries,
		Difference: c.Difference(),
		Consistent: c.IsConsistent(),
	}
}
