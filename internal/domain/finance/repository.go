package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRepository stores accounting transactions. There is no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// ExistsForSource reports whether a transaction of the kind was already posted for the source document
	ExistsForSource(ctx context.Context, kind TransactionKind, sourceID uuid.UUID) (bool, error)
}

// LedgerRepository stores supplier ledger entries
type LedgerRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
	// Sum returns the signed sum and count of a supplier's entries
	Sum(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, int64, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit int) ([]LedgerEntry, error)
}
