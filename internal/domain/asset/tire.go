package asset

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

const aggregateTypeTire = "Tire"

// Spec is the catalog identity of a tire: what it is, not which one it is
type Spec struct {
	Size  string
	Brand string
	Model string
}

// Validate checks the spec fields are present
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Size) == "" {
		return shared.NewValidationError(shared.CodeInvalidInput, "tire size cannot be empty")
	}
	if strings.TrimSpace(s.Brand) == "" {
		return shared.NewValidationError(shared.CodeInvalidInput, "tire brand cannot be empty")
	}
	if strings.TrimSpace(s.Model) == "" {
		return shared.NewValidationError(shared.CodeInvalidInput, "tire model cannot be empty")
	}
	return nil
}

// Lineage points at the document line that produced a tire. Exactly one side is set.
type Lineage struct {
	PurchaseLineID *uuid.UUID
	RetreadLineID  *uuid.UUID
}

// Disposal holds the metadata recorded when a tire leaves the fleet
type Disposal struct {
	Method       DisposalMethod
	Reason       string
	AuthorizedBy uuid.UUID
	DisposedAt   time.Time
}

// Assignment is the vehicle placement of a mounted tire
type Assignment struct {
	ID         uuid.UUID
	VehicleID  uuid.UUID
	PositionID string
	Odometer   int64
	Since      time.Time
}

// Tire is a single physical tire tracked through its lifecycle.
// Status is a projection of the latest Movement and only changes through Apply.
type Tire struct {
	shared.BaseAggregateRoot
	SerialNumber   string
	Spec           Spec
	Kind           TireKind
	Status         TireStatus
	CostBasis      decimal.Decimal
	SupplierID     *uuid.UUID
	AcquiredAt     time.Time
	Lineage        Lineage
	RetreadCount   int
	Disposal       *Disposal
	Assignment     *Assignment
	SupersededByID *uuid.UUID
	SupersededAt   *time.Time
}

// NewPurchasedTire creates a NEW tire produced by a purchase order line. Its status is
// set by the creation movement, not here.
func NewPurchasedTire(clock shared.Clock, serial string, spec Spec, cost decimal.Decimal, supplierID uuid.UUID, purchaseLineID uuid.UUID) (*Tire, error) {
	t, err := newTire(clock, serial, spec, KindNew, cost)
	if err != nil {
		return nil, err
	}
	t.SupplierID = &supplierID
	t.Lineage = Lineage{PurchaseLineID: &purchaseLineID}
	return t, nil
}

// NewRetreadedTire creates the RETREADED identity that replaces original after an
// accepted retread.
func NewRetreadedTire(clock shared.Clock, serial string, original *Tire, cost decimal.Decimal, supplierID uuid.UUID, retreadLineID uuid.UUID) (*Tire, error) {
	if original == nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "original tire is required")
	}
	if strings.EqualFold(strings.TrimSpace(serial), original.SerialNumber) {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "retreaded tire needs a new serial number").
			WithEntity(aggregateTypeTire, original.ID.String())
	}
	t, err := newTire(clock, serial, original.Spec, KindRetreaded, cost)
	if err != nil {
		return nil, err
	}
	t.SupplierID = &supplierID
	t.Lineage = Lineage{RetreadLineID: &retreadLineID}
	t.RetreadCount = original.RetreadCount + 1
	return t, nil
}

func newTire(clock shared.Clock, serial string, spec Spec, kind TireKind, cost decimal.Decimal) (*Tire, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "serial number cannot be empty")
	}
	if len(serial) > 64 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "serial number cannot exceed 64 characters")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if cost.IsNegative() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "cost basis cannot be negative")
	}
	root := shared.NewBaseAggregateRoot(clock)
	return &Tire{
		BaseAggregateRoot: root,
		SerialNumber:      serial,
		Spec:              spec,
		Kind:              kind,
		CostBasis:         cost.Round(2),
		AcquiredAt:        root.CreatedAt,
	}, nil
}

// IsSuperseded reports whether a retreaded identity has replaced this tire
func (t *Tire) IsSuperseded() bool {
	return t.SupersededByID != nil
}

// StockKey returns the aggregator key this tire is counted under
func (t *Tire) StockKey() StockKey {
	return StockKey{Size: t.Spec.Size, Brand: t.Spec.Brand, Model: t.Spec.Model, Kind: t.Kind}
}

// Apply moves the tire through the transition table and returns the (from, to) pair
// the caller must record as a Movement in the same transaction.
func (t *Tire) Apply(trigger Trigger, at time.Time) (TireStatus, TireStatus, error) {
	from := t.Status
	if t.IsSuperseded() {
		return from, from, shared.NewStateConflictError(aggregateTypeTire, t.ID.String(), string(from), string(trigger),
			"tire was superseded by a retreaded tire")
	}
	if trigger.IsCreation() {
		return from, from, shared.NewStateConflictError(aggregateTypeTire, t.ID.String(), string(from), string(trigger),
			"creation trigger applied to an existing tire")
	}
	to, ok := NextStatus(from, trigger)
	if !ok {
		msg := "transition not allowed"
		if from.IsTerminal() {
			msg = "tire is in a terminal state"
		}
		err := shared.NewStateConflictError(aggregateTypeTire, t.ID.String(), string(from), string(trigger), msg)
		err.Code = shared.CodeInvalidTransition
		return from, from, err
	}
	t.Status = to
	t.Touch(at)
	return from, to, nil
}

// Enter sets the initial status of a newly created tire from a creation trigger
func (t *Tire) Enter(trigger Trigger) (TireStatus, TireStatus, error) {
	if !trigger.IsCreation() || t.Status != "" {
		return t.Status, t.Status, shared.NewStateConflictError(aggregateTypeTire, t.ID.String(), string(t.Status), string(trigger),
			"tire already has a lifecycle")
	}
	from := TireStatus("")
	if trigger == TriggerRetreadAccepted {
		from = StatusAtRetreadSupplier
	}
	to, _ := NextStatus(from, trigger)
	t.Status = to
	return from, to, nil
}

// Mount records the vehicle assignment after an INSTALLED transition
func (t *Tire) Mount(vehicleID uuid.UUID, positionID string, odometer int64, at time.Time) (*Assignment, error) {
	if strings.TrimSpace(positionID) == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "position cannot be empty")
	}
	if odometer < 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "odometer cannot be negative")
	}
	t.Assignment = &Assignment{
		ID:         uuid.New(),
		VehicleID:  vehicleID,
		PositionID: positionID,
		Odometer:   odometer,
		Since:      at,
	}
	return t.Assignment, nil
}

// Unmount clears the vehicle assignment and returns it. Odometer may not go backwards.
func (t *Tire) Unmount(odometer int64) (*Assignment, error) {
	if t.Assignment == nil {
		return nil, shared.NewStateConflictError(aggregateTypeTire, t.ID.String(), string(t.Status), string(TriggerRemoved),
			"tire has no vehicle assignment")
	}
	if odometer < t.Assignment.Odometer {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "removal odometer is below installation odometer").
			WithEntity(aggregateTypeTire, t.ID.String())
	}
	a := t.Assignment
	t.Assignment = nil
	return a, nil
}

// MarkSuperseded links this tire to the retreaded identity that replaced it
func (t *Tire) MarkSuperseded(newTireID uuid.UUID, at time.Time) error {
	if t.Status != StatusAtRetreadSupplier {
		return shared.NewStateConflictError(aggregateTypeTire, t.ID.String(), string(t.Status), "SUPERSEDED",
			"only a tire at the retread supplier can be superseded")
	}
	if t.IsSuperseded() {
		return shared.NewStateConflictError(aggregateTypeTire, t.ID.String(), string(t.Status), "SUPERSEDED",
			"tire already superseded")
	}
	t.SupersededByID = &newTireID
	t.SupersededAt = &at
	t.Touch(at)
	return nil
}
