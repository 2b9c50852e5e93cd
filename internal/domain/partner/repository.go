package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// SupplierRepository persists suppliers
type SupplierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)
	// FindByIDForUpdate reads the supplier holding a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Supplier, error)
	Create(ctx context.Context, s *Supplier) error
	// UpdateStatus writes the status when the stored version still matches s.Version
	UpdateStatus(ctx context.Context, s *Supplier) error
	// AdjustBalance applies a relative change in SQL and returns the new balance
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	List(ctx context.Context, filter shared.Filter) ([]Supplier, int64, error)
}
