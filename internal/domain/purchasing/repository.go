package purchasing

import (
	"context"

	"github.com/google/uuid"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds a purchase order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate finds a purchase order with its lines, locking the header and
	// line rows (header first) until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindOrderIDByItem returns the order id owning a line
	FindOrderIDByItem(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error)

	// Create inserts a new order with its lines
	Create(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock updates the header with optimistic locking and synchronizes its lines:
	// new lines are inserted, changed lines are updated with a version check and
	// removed lines are deleted
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error

	// Delete removes an order and its lines
	Delete(ctx context.Context, id uuid.UUID) error
}

// GoodsReceiptRepository persists GRNs
type GoodsReceiptRepository interface {
	// Create inserts a GRN with its items
	Create(ctx context.Context, receipt *GoodsReceipt) error

	// LinkTransaction records the accounting transaction posted for a GRN
	LinkTransaction(ctx context.Context, receiptID, transactionID uuid.UUID) error

	// FindByID finds a GRN with its items
	FindByID(ctx context.Context, id uuid.UUID) (*GoodsReceipt, error)

	// ListByOrder lists the GRNs of a purchase order, oldest first
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]GoodsReceipt, error)

	// CountByOrder counts GRNs of a purchase order
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}
