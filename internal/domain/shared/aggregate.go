package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps. Timestamps come from a Clock,
// never from the database.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch records a change at the given instant
func (e *BaseEntity) Touch(at time.Time) {
	e.UpdatedAt = at
}

// NewBaseEntity stamps a fresh id with the clock's current time
func NewBaseEntity(clock Clock) BaseEntity {
	now := clock.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// EventSource is anything that queues domain events for publication after commit
type EventSource interface {
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot adds the optimistic-lock version and the pending event queue.
// Repositories compare Version on save and call IncrementVersion once the row
// has been written.
type BaseAggregateRoot struct {
	BaseEntity
	Version int

	events []DomainEvent
}

// NewBaseAggregateRoot starts an aggregate at version 1
func NewBaseAggregateRoot(clock Clock) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(clock), Version: 1}
}

// IncrementVersion is called by repositories after a successful save
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the queued events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents empties the queue
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}

var _ EventSource = (*BaseAggregateRoot)(nil)
