package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// BaseModel holds the id and timestamps every table carries. Repositories copy
// timestamps from the domain clock; gorm only fills them when left zero.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel adds the version column used for compare-and-swap saves
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// SetAggregateRoot copies the root's identity, timestamps and version
func (m *AggregateModel) SetAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID, m.CreatedAt, m.UpdatedAt = a.ID, a.CreatedAt, a.UpdatedAt
	m.Version = a.Version
}

// AggregateRoot rebuilds the root fields with an empty event queue
func (m *AggregateModel) AggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
}
