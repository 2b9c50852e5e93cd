package asset

import (
	"time"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// ReferenceKind names the document that caused a movement
type ReferenceKind string

const (
	// RefPurchaseLine is a purchase order line
	RefPurchaseLine ReferenceKind = "PURCHASE_LINE"
	// RefGoodsReceipt is a goods received note
	RefGoodsReceipt ReferenceKind = "GRN"
	// RefRetreadOrder is a retread order header
	RefRetreadOrder ReferenceKind = "RETREAD_ORDER"
	// RefRetreadLine is a single retread order line
	RefRetreadLine ReferenceKind = "RETREAD_LINE"
	// RefVehicleAssignment is a mount of a tire on a vehicle position
	RefVehicleAssignment ReferenceKind = "VEHICLE_ASSIGNMENT"
)

// IsValid checks if the reference kind is a known value
func (k ReferenceKind) IsValid() bool {
	switch k {
	case RefPurchaseLine, RefGoodsReceipt, RefRetreadOrder, RefRetreadLine, RefVehicleAssignment:
		return true
	}
	return false
}

// Reference is the causal link of a movement
type Reference struct {
	Kind ReferenceKind
	ID   uuid.UUID
}

// Movement is an immutable record of one tire transition.
// Sequence numbers are per tire, start at 1 and have no gaps.
type Movement struct {
	ID         uuid.UUID
	TireID     uuid.UUID
	Sequence   int64
	FromStatus TireStatus
	ToStatus   TireStatus
	Trigger    Trigger
	OccurredAt time.Time
	ActorID    uuid.UUID
	Reference  *Reference
	Odometer   *int64
	Note       string
}

// MovementInput carries what a caller knows about a transition
type MovementInput struct {
	ActorID   uuid.UUID
	Reference *Reference
	Odometer  *int64
	Note      string
}

// NewMovement builds the movement for a transition that the tire has just applied.
// previous is the last movement of the tire, nil for a newly created tire.
func NewMovement(tire *Tire, previous *Movement, from, to TireStatus, trigger Trigger, at time.Time, in MovementInput) (*Movement, error) {
	if tire == nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "tire is required")
	}
	if in.ActorID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "movement actor is required").
			WithEntity(aggregateTypeTire, tire.ID.String())
	}
	if in.Reference != nil && !in.Reference.Kind.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown movement reference kind "+string(in.Reference.Kind))
	}
	if tire.Status != to {
		return nil, shared.NewStateConflictError(aggregateTypeTire, tire.ID.String(), string(tire.Status), string(to),
			"movement target does not match tire status")
	}

	seq := int64(1)
	if previous != nil {
		if previous.TireID != tire.ID {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "previous movement belongs to another tire")
		}
		if previous.ToStatus != from {
			return nil, shared.NewStateConflictError(aggregateTypeTire, tire.ID.String(), string(previous.ToStatus), string(from),
				"movement chain broken: previous target differs from transition source")
		}
		seq = previous.Sequence + 1
	} else if !trigger.IsCreation() {
		return nil, shared.NewStateConflictError(aggregateTypeTire, tire.ID.String(), string(from), string(trigger),
			"first movement of a tire must be a creation")
	}

	return &Movement{
		ID:         uuid.New(),
		TireID:     tire.ID,
		Sequence:   seq,
		FromStatus: from,
		ToStatus:   to,
		Trigger:    trigger,
		OccurredAt: at,
		ActorID:    in.ActorID,
		Reference:  in.Reference,
		Odometer:   in.Odometer,
		Note:       in.Note,
	}, nil
}
