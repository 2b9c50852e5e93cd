package retread

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists retread orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindByIDForUpdate locks the header and its lines until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	Create(ctx context.Context, order *Order) error
	// SaveWithLock updates the header (version check) and every line (version check)
	SaveWithLock(ctx context.Context, order *Order) error
	// FindOpenItemByTire returns the pending line binding a tire on an open order, nil if none
	FindOpenItemByTire(ctx context.Context, tireID uuid.UUID) (*OrderItem, error)
}

// ReceiptRepository persists RRNs
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *Receipt) error
	LinkTransaction(ctx context.Context, receiptID, transactionID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Receipt, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Receipt, error)
}
