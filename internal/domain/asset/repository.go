package asset

import (
	"context"

	"github.com/google/uuid"
)

// TireFilter narrows tire listings
type TireFilter struct {
	Status *TireStatus
	Key    *StockKey
	Limit  int
	Offset int
}

// TireRepository defines the interface for tire persistence
type TireRepository interface {
	// FindByID finds a tire by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tire, error)

	// FindByIDForUpdate finds a tire and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Tire, error)

	// FindBySerial finds a tire by serial number
	FindBySerial(ctx context.Context, serial string) (*Tire, error)

	// ExistsBySerials returns the subset of serials already in use
	ExistsBySerials(ctx context.Context, serials []string) ([]string, error)

	// Create inserts a new tire
	Create(ctx context.Context, tire *Tire) error

	// Update persists a tire using optimistic locking on Version
	Update(ctx context.Context, tire *Tire) error

	// CountByPurchaseLine counts tires whose lineage is the purchase line
	CountByPurchaseLine(ctx context.Context, lineID uuid.UUID) (int64, error)

	// CountInStockByKey counts tires per stock key whose status is an in-stock status.
	// A nil key counts every key.
	CountInStockByKey(ctx context.Context, key *StockKey) (map[StockKey]int64, error)

	// List returns tires matching the filter
	List(ctx context.Context, filter TireFilter) ([]Tire, error)
}

// MovementRepository is append-only: movements are never updated or deleted
type MovementRepository interface {
	// Append inserts a movement; (tire_id, sequence) is unique
	Append(ctx context.Context, m *Movement) error

	// Last returns the most recent movement of a tire, nil if none
	Last(ctx context.Context, tireID uuid.UUID) (*Movement, error)

	// ListAfter returns up to limit movements of a tire with Sequence > afterSeq, ascending
	ListAfter(ctx context.Context, tireID uuid.UUID, afterSeq int64, limit int) ([]Movement, error)

	// CountByTire counts movements of a tire
	CountByTire(ctx context.Context, tireID uuid.UUID) (int64, error)
}
