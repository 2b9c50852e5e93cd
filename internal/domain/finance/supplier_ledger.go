package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryKind is the kind of supplier ledger movement
type LedgerEntryKind string

const (
	LedgerPurchase       LedgerEntryKind = "PURCHASE"
	LedgerRetreadService LedgerEntryKind = "RETREAD_SERVICE"
	LedgerPayment        LedgerEntryKind = "PAYMENT"
)

// Sign returns +1 for kinds that increase what we owe and -1 for payments
func (k LedgerEntryKind) Sign() int64 {
	if k == LedgerPayment {
		return -1
	}
	return 1
}

// LedgerEntry is an immutable supplier sub-ledger record. Amount is always positive;
// direction comes from the kind.
type LedgerEntry struct {
	ID            uuid.UUID
	SupplierID    uuid.UUID
	Kind          LedgerEntryKind
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	TransactionID uuid.UUID
	Reference     string
	ActorID       uuid.UUID
	OccurredAt    time.Time
}

// NewLedgerEntry creates a ledger entry for a posted transaction
func NewLedgerEntry(tx *Transaction, kind LedgerEntryKind, balanceAfter decimal.Decimal, reference string) *LedgerEntry {
	return &LedgerEntry{
		ID:            uuid.New(),
		SupplierID:    tx.SupplierID,
		Kind:          kind,
		Amount:        tx.Amount,
		BalanceAfter:  balanceAfter,
		TransactionID: tx.ID,
		Reference:     reference,
		ActorID:       tx.PostedBy,
		OccurredAt:    tx.PostedAt,
	}
}

// SignedAmount returns the amount with the direction of the kind applied
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	return e.Amount.Mul(decimal.NewFromInt(e.Kind.Sign()))
}

// BalanceCheck compares a supplier's cached balance with its ledger
type BalanceCheck struct {
	SupplierID uuid.UUID       `json:"supplier_id"`
	Balance    decimal.Decimal `json:"balance"`
	LedgerSum  decimal.Decimal `json:"ledger_sum"`
	Entries    int64           `json:"entries"`
}

// Difference returns balance minus ledger sum
func (c BalanceCheck) Difference() decimal.Decimal {
	return c.Balance.Sub(c.LedgerSum)
}

// IsConsistent reports whether the balance equals the ledger sum
func (c BalanceCheck) IsConsistent() bool {
	return c.Balance.Equal(c.LedgerSum)
}
