package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/asset"
)

// TireModel is the persistence model for the Tire aggregate
type TireModel struct {
	AggregateModel
	SerialNumber       string               `gorm:"type:varchar(64);not null;uniqueIndex"`
	Size               string               `gorm:"type:varchar(50);not null;index:idx_tire_key,priority:1"`
	Brand              string               `gorm:"type:varchar(100);not null;index:idx_tire_key,priority:2"`
	TireModelName      string               `gorm:"column:model;type:varchar(100);not null;index:idx_tire_key,priority:3"`
	Kind               asset.TireKind       `gorm:"type:varchar(20);not null;index:idx_tire_key,priority:4"`
	Status             asset.TireStatus     `gorm:"type:varchar(30);not null;index"`
	CostBasis          decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	SupplierID         *uuid.UUID           `gorm:"type:uuid"`
	AcquiredAt         time.Time            `gorm:"not null"`
	SourcePurchaseLine *uuid.UUID           `gorm:"column:source_purchase_line_id;type:uuid;index"`
	SourceRetreadLine  *uuid.UUID           `gorm:"column:source_retread_line_id;type:uuid;index"`
	RetreadCount       int                  `gorm:"not null;default:0"`
	DisposalMethod     asset.DisposalMethod `gorm:"type:varchar(30)"`
	DisposalReason     string               `gorm:"type:varchar(500)"`
	DisposalAuthorizer *uuid.UUID           `gorm:"column:disposal_authorized_by;type:uuid"`
	DisposedAt         *time.Time
	AssignmentID       *uuid.UUID `gorm:"type:uuid"`
	VehicleID          *uuid.UUID `gorm:"type:uuid;index"`
	PositionID         string     `gorm:"type:varchar(50)"`
	MountOdometer      *int64
	MountedAt          *time.Time
	SupersededByID     *uuid.UUID `gorm:"type:uuid"`
	SupersededAt       *time.Time
}

// TableName returns the table name for GORM
func (TireModel) TableName() string {
	return "tires"
}

// ToDomain converts the persistence model to a domain Tire
func (m *TireModel) ToDomain() *asset.Tire {
	t := &asset.Tire{
		BaseAggregateRoot: m.AggregateRoot(),
		SerialNumber:      m.SerialNumber,
		Spec:              asset.Spec{Size: m.Size, Brand: m.Brand, Model: m.TireModelName},
		Kind:              m.Kind,
		Status:            m.Status,
		CostBasis:         m.CostBasis,
		SupplierID:        m.SupplierID,
		AcquiredAt:        m.AcquiredAt,
		Lineage:           asset.Lineage{PurchaseLineID: m.SourcePurchaseLine, RetreadLineID: m.SourceRetreadLine},
		RetreadCount:      m.RetreadCount,
		SupersededByID:    m.SupersededByID,
		SupersededAt:      m.SupersededAt,
	}
	if m.DisposalMethod != "" && m.DisposedAt != nil {
		d := &asset.Disposal{
			Method:     m.DisposalMethod,
			Reason:     m.DisposalReason,
			DisposedAt: *m.DisposedAt,
		}
		if m.DisposalAuthorizer != nil {
			d.AuthorizedBy = *m.DisposalAuthorizer
		}
		t.Disposal = d
	}
	if m.AssignmentID != nil && m.VehicleID != nil {
		a := &asset.Assignment{
			ID:         *m.AssignmentID,
			VehicleID:  *m.VehicleID,
			PositionID: m.PositionID,
		}
		if m.MountOdometer != nil {
			a.Odometer = *m.MountOdometer
		}
		if m.MountedAt != nil {
			a.Since = *m.MountedAt
		}
		t.Assignment = a
	}
	return t
}

// FromDomain populates the model from a domain Tire
func (m *TireModel) FromDomain(t *asset.Tire) {
	m.SetAggregateRoot(t.BaseAggregateRoot)
	m.SerialNumber = t.SerialNumber
	m.Size = t.Spec.Size
	m.Brand = t.Spec.Brand
	m.TireModelName = t.Spec.Model
	m.Kind = t.Kind
	m.Status = t.Status
	m.CostBasis = t.CostBasis
	m.SupplierID = t.SupplierID
	m.AcquiredAt = t.AcquiredAt
	m.SourcePurchaseLine = t.Lineage.PurchaseLineID
	m.SourceRetreadLine = t.Lineage.RetreadLineID
	m.RetreadCount = t.RetreadCount
	m.SupersededByID = t.SupersededByID
	m.SupersededAt = t.SupersededAt

	m.DisposalMethod, m.DisposalReason, m.DisposalAuthorizer, m.DisposedAt = "", "", nil, nil
	if d := t.Disposal; d != nil {
		authorizer, at := d.AuthorizedBy, d.DisposedAt
		m.DisposalMethod = d.Method
		m.DisposalReason = d.Reason
		m.DisposalAuthorizer = &authorizer
		m.DisposedAt = &at
	}
	m.AssignmentID, m.VehicleID, m.PositionID, m.MountOdometer, m.MountedAt = nil, nil, "", nil, nil
	if a := t.Assignment; a != nil {
		id, vehicle, odometer, since := a.ID, a.VehicleID, a.Odometer, a.Since
		m.AssignmentID = &id
		m.VehicleID = &vehicle
		m.PositionID = a.PositionID
		m.MountOdometer = &odometer
		m.MountedAt = &since
	}
}

// TireModelFromDomain creates a new persistence model from a domain Tire
func TireModelFromDomain(t *asset.Tire) *TireModel {
	m := &TireModel{}
	m.FromDomain(t)
	return m
}

// TireMovementModel is one row of the append-only movement ledger
type TireMovementModel struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key"`
	TireID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_movement_tire_seq,priority:1"`
	Sequence      int64               `gorm:"not null;uniqueIndex:idx_movement_tire_seq,priority:2"`
	FromStatus    asset.TireStatus    `gorm:"type:varchar(30)"`
	ToStatus      asset.TireStatus    `gorm:"type:varchar(30);not null"`
	Trigger       asset.Trigger       `gorm:"column:trigger_name;type:varchar(30);not null"`
	OccurredAt    time.Time           `gorm:"not null;index"`
	ActorID       uuid.UUID           `gorm:"type:uuid;not null"`
	ReferenceKind asset.ReferenceKind `gorm:"type:varchar(30)"`
	ReferenceID   *uuid.UUID          `gorm:"type:uuid;index"`
	Odometer      *int64
	Note          string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (TireMovementModel) TableName() string {
	return "tire_movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *TireMovementModel) ToDomain() *asset.Movement {
	mv := &asset.Movement{
		ID:         m.ID,
		TireID:     m.TireID,
		Sequence:   m.Sequence,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		Trigger:    m.Trigger,
		OccurredAt: m.OccurredAt,
		ActorID:    m.ActorID,
		Odometer:   m.Odometer,
		Note:       m.Note,
	}
	if m.ReferenceKind != "" && m.ReferenceID != nil {
		mv.Reference = &asset.Reference{Kind: m.ReferenceKind, ID: *m.ReferenceID}
	}
	return mv
}

// TireMovementModelFromDomain creates a persistence model from a domain Movement
func TireMovementModelFromDomain(mv *asset.Movement) *TireMovementModel {
	m := &TireMovementModel{
		ID:         mv.ID,
		TireID:     mv.TireID,
		Sequence:   mv.Sequence,
		FromStatus: mv.FromStatus,
		ToStatus:   mv.ToStatus,
		Trigger:    mv.Trigger,
		OccurredAt: mv.OccurredAt,
		ActorID:    mv.ActorID,
		Odometer:   mv.Odometer,
		Note:       mv.Note,
	}
	if mv.Reference != nil {
		id := mv.Reference.ID
		m.ReferenceKind = mv.Reference.Kind
		m.ReferenceID = &id
	}
	return m
}
