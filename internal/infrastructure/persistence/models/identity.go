package models

import (
	"github.com/tyrefleet/backend/internal/domain/identity"
)

// ActorModel is a caller known to the service with its capabilities
type ActorModel struct {
	BaseModel
	Name         string `gorm:"type:varchar(200);not null"`
	Active       bool   `gorm:"not null;default:true"`
	Capabilities string `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (ActorModel) TableName() string {
	return "actors"
}

// ToDomain converts the persistence model to a domain Actor
func (m *ActorModel) ToDomain() *identity.Actor {
	return &identity.Actor{
		ID:           m.ID,
		Name:         m.Name,
		Active:       m.Active,
		Capabilities: identity.ParseCapabilities(m.Capabilities),
	}
}

// FromDomain populates the model from a domain Actor
func (m *ActorModel) FromDomain(a *identity.Actor) {
	m.ID = a.ID
	m.Name = a.Name
	m.Active = a.Active
	m.Capabilities = identity.JoinCapabilities(a.Capabilities)
}
