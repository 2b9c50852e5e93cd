package asset

import (
	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// Event types published by the asset store
const (
	EventTypeTireTransitioned = "TireTransitioned"
	EventTypeTireDisposed     = "TireDisposed"
)

// TireTransitionedEvent is published after a committed tire transition
type TireTransitionedEvent struct {
	shared.BaseDomainEvent
	SerialNumber string     `json:"serial_number"`
	From         TireStatus `json:"from"`
	To           TireStatus `json:"to"`
	Trigger      Trigger    `json:"trigger"`
	Sequence     int64      `json:"sequence"`
	ActorID      uuid.UUID  `json:"actor_id"`
}

// NewTireTransitionedEvent builds the event from the recorded movement
func NewTireTransitionedEvent(tire *Tire, m *Movement) *TireTransitionedEvent {
	return &TireTransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTireTransitioned, aggregateTypeTire, tire.ID, m.OccurredAt),
		SerialNumber:    tire.SerialNumber,
		From:            m.FromStatus,
		To:              m.ToStatus,
		Trigger:         m.Trigger,
		Sequence:        m.Sequence,
		ActorID:         m.ActorID,
	}
}

// TireDisposedEvent is published after a tire is disposed or scrapped
type TireDisposedEvent struct {
	shared.BaseDomainEvent
	SerialNumber string         `json:"serial_number"`
	Method       DisposalMethod `json:"method"`
	Reason       string         `json:"reason"`
	AuthorizedBy uuid.UUID      `json:"authorized_by"`
}

// NewTireDisposedEvent builds the event from the tire's disposal metadata
func NewTireDisposedEvent(tire *Tire) *TireDisposedEvent {
	e := &TireDisposedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTireDisposed, aggregateTypeTire, tire.ID, tire.UpdatedAt),
		SerialNumber:    tire.SerialNumber,
	}
	if tire.Disposal != nil {
		e.Method = tire.Disposal.Method
		e.Reason = tire.Disposal.Reason
		e.AuthorizedBy = tire.Disposal.AuthorizedBy
	}
	return e
}
