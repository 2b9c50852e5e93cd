// Package txscope defines the unit of work the application services run in.
package txscope

import (
	"context"

	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/purchasing"
	"github.com/tyrefleet/backend/internal/domain/retread"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/domain/stock"
)

// Scope runs a function inside one database transaction. If fn returns an error
// the transaction is rolled back and nothing it wrote is visible.
type Scope interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Repositories gives access to every repository bound to the current transaction.
// Row locks taken through one of them are held until Execute returns.
type Repositories interface {
	Tires() asset.TireRepository
	Movements() asset.MovementRepository
	Catalog() stock.CatalogRepository
	PurchaseOrders() purchasing.PurchaseOrderRepository
	GoodsReceipts() purchasing.GoodsReceiptRepository
	RetreadOrders() retread.OrderRepository
	RetreadReceipts() retread.ReceiptRepository
	Transactions() finance.TransactionRepository
	Ledger() finance.LedgerRepository
	Suppliers() partner.SupplierRepository
	Sequences() shared.SequenceGenerator
}

// Events collects domain events raised inside a transaction so they can be
// published once it has committed.
type Events struct {
	pending []shared.DomainEvent
}

// Add queues events
func (e *Events) Add(events ...shared.DomainEvent) {
	e.pending = append(e.pending, events...)
}

// Collect queues the pending events of an aggregate and clears them on it
func (e *Events) Collect(agg shared.EventSource) {
	e.pending = append(e.pending, agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
}

// Publish hands the queued events to publisher. A nil publisher drops them.
// Publishing happens after commit, so a failure is returned for logging only.
func (e *Events) Publish(ctx context.Context, publisher shared.EventPublisher) error {
	if publisher == nil || len(e.pending) == 0 {
		e.pending = nil
		return nil
	}
	events := e.pending
	e.pending = nil
	return publisher.Publish(ctx, events...)
}

// Reset drops queued events, used when a transaction is retried
func (e *Events) Reset() {
	e.pending = nil
}

// Len returns the number of queued events
func (e *Events) Len() int {
	return len(e.pending)
}
