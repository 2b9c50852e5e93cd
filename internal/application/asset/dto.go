package asset

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/asset"
)

// ==================== Tire Command DTOs ====================

// InstallTireRequest mounts a tire on a vehicle position
type InstallTireRequest struct {
	VehicleID  uuid.UUID `json:"vehicle_id" binding:"required"`
	PositionID string    `json:"position_id" binding:"required,min=1,max=50"`
	Odometer   int64     `json:"odometer" binding:"min=0"`
	Note       string    `json:"note" binding:"max=500"`
}

// RemoveTireRequest takes a tire off its vehicle
type RemoveTireRequest struct {
	Odometer int64  `json:"odometer" binding:"min=0"`
	Reason   string `json:"reason" binding:"required,min=1,max=500"`
}

// MarkForRetreadRequest queues a used tire for retreading
type MarkForRetreadRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// DisposeTireRequest takes a tire out of the fleet
type DisposeTireRequest struct {
	Method string `json:"method" binding:"required,oneof=SCRAP SALE RECYCLE RETURN_TO_SUPPLIER OTHER"`
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ReverseDisposalRequest returns a disposed tire to used stock
type ReverseDisposalRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ==================== Tire Response DTOs ====================

// AssignmentResponse is the vehicle placement of a mounted tire
type AssignmentResponse struct {
	ID         uuid.UUID `json:"id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	PositionID string    `json:"position_id"`
	Odometer   int64     `json:"odometer"`
	Since      time.Time `json:"since"`
}

// DisposalResponse is the disposal metadata of a tire
type DisposalResponse struct {
	Method       string    `json:"method"`
	Reason       string    `json:"reason"`
	AuthorizedBy uuid.UUID `json:"authorized_by"`
	DisposedAt   time.Time `json:"disposed_at"`
}

// TireResponse represents a tire in API responses
type TireResponse struct {
	ID                   uuid.UUID           `json:"id"`
	SerialNumber         string              `json:"serial_number"`
	Size                 string              `json:"size"`
	Brand                string              `json:"brand"`
	Model                string              `json:"model"`
	Kind                 string              `json:"kind"`
	Status               string              `json:"status"`
	CostBasis            decimal.Decimal     `json:"cost_basis"`
	SupplierID           *uuid.UUID          `json:"supplier_id,omitempty"`
	AcquiredAt           time.Time           `json:"acquired_at"`
	SourcePurchaseLineID *uuid.UUID          `json:"source_purchase_line_id,omitempty"`
	SourceRetreadLineID  *uuid.UUID          `json:"source_retread_line_id,omitempty"`
	RetreadCount         int                 `json:"retread_count"`
	Assignment           *AssignmentResponse `json:"assignment,omitempty"`
	Disposal             *DisposalResponse   `json:"disposal,omitempty"`
	SupersededByID       *uuid.UUID          `json:"superseded_by_id,omitempty"`
	Version              int                 `json:"version"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// MovementResponse represents one movement ledger record
type MovementResponse struct {
	ID            uuid.UUID  `json:"id"`
	TireID        uuid.UUID  `json:"tire_id"`
	Sequence      int64      `json:"sequence"`
	FromStatus    string     `json:"from_status,omitempty"`
	ToStatus      string     `json:"to_status"`
	Trigger       string     `json:"trigger"`
	OccurredAt    time.Time  `json:"occurred_at"`
	ActorID       uuid.UUID  `json:"actor_id"`
	ReferenceKind string     `json:"reference_kind,omitempty"`
	ReferenceID   *uuid.UUID `json:"reference_id,omitempty"`
	Odometer      *int64     `json:"odometer,omitempty"`
	Note          string     `json:"note,omitempty"`
}

// ConsistencyReport is the result of checking a tire against its movement ledger
type ConsistencyReport struct {
	TireID        uuid.UUID `json:"tire_id"`
	Status        string    `json:"status"`
	LastToStatus  string    `json:"last_to_status"`
	LastSequence  int64     `json:"last_sequence"`
	MovementCount int64     `json:"movement_count"`
	Consistent    bool      `json:"consistent"`
	Inconsistency string    `json:"inconsistency,omitempty"`
}

// ToTireResponse converts a domain tire to a response
func ToTireResponse(t *asset.Tire) TireResponse {
	resp := TireResponse{
		ID:                   t.ID,
		SerialNumber:         t.SerialNumber,
		Size:                 t.Spec.Size,
		Brand:                t.Spec.Brand,
		Model:                t.Spec.Model,
		Kind:                 string(t.Kind),
		Status:               string(t.Status),
		CostBasis:            t.CostBasis,
		SupplierID:           t.SupplierID,
		AcquiredAt:           t.AcquiredAt,
		SourcePurchaseLineID: t.Lineage.PurchaseLineID,
		SourceRetreadLineID:  t.Lineage.RetreadLineID,
		RetreadCount:         t.RetreadCount,
		SupersededByID:       t.SupersededByID,
		Version:              t.Version,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
	if a := t.Assignment; a != nil {
		resp.Assignment = &AssignmentResponse{
			ID:         a.ID,
			VehicleID:  a.VehicleID,
			PositionID: a.PositionID,
			Odometer:   a.Odometer,
			Since:      a.Since,
		}
	}
	if d := t.Disposal; d != nil {
		resp.Disposal = &DisposalResponse{
			Method:       string(d.Method),
			Reason:       d.Reason,
			AuthorizedBy: d.AuthorizedBy,
			DisposedAt:   d.DisposedAt,
		}
	}
	return resp
}

// ToMovementResponse converts a movement to a response
func ToMovementResponse(m *asset.Movement) MovementResponse {
	resp := MovementResponse{
		ID:         m.ID,
		TireID:     m.TireID,
		Sequence:   m.Sequence,
		FromStatus: string(m.FromStatus),
		ToStatus:   string(m.ToStatus),
		Trigger:    string(m.Trigger),
		OccurredAt: m.OccurredAt,
		ActorID:    m.ActorID,
		Odometer:   m.Odometer,
		Note:       m.Note,
	}
	if m.Reference != nil {
		id := m.Reference.ID
		resp.ReferenceKind = string(m.Reference.Kind)
		resp.ReferenceID = &id
	}
	return resp
}

// ToMovementResponses converts a page of movements
func ToMovementResponses(ms []asset.Movement) []MovementResponse {
	out := make([]MovementResponse, len(ms))
	for i := range ms {
		out[i] = ToMovementResponse(&ms[i])
	}
	return out
}
