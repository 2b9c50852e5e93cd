package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	assetapp "github.com/tyrefleet/backend/internal/application/asset"
	"github.com/tyrefleet/backend/internal/interfaces/http/dto"
)

const (
	defaultMovementPage = 50
	maxMovementPage     = 500
)

// TireService is the tire lifecycle surface the handler needs
type TireService interface {
	GetTire(ctx context.Context, tireID uuid.UUID) (*assetapp.TireResponse, error)
	GetTireBySerial(ctx context.Context, serial string) (*assetapp.TireResponse, error)
	InstallTire(ctx context.Context, tireID, actorID uuid.UUID, req assetapp.InstallTireRequest) (*assetapp.TireResponse, error)
	RemoveTire(ctx context.Context, tireID, actorID uuid.UUID, req assetapp.RemoveTireRequest) (*assetapp.TireResponse, error)
	MarkForRetread(ctx context.Context, tireID, actorID uuid.UUID, req assetapp.MarkForRetreadRequest) (*assetapp.TireResponse, error)
	DisposeTire(ctx context.Context, tireID, authorizerID uuid.UUID, req assetapp.DisposeTireRequest) (*assetapp.TireResponse, error)
	ReverseDisposal(ctx context.Context, tireID, authorizerID uuid.UUID, req assetapp.ReverseDisposalRequest) (*assetapp.TireResponse, error)
	ListMovements(ctx context.Context, tireID uuid.UUID, afterSeq int64, limit int) ([]assetapp.MovementResponse, error)
	VerifyTireConsistency(ctx context.Context, tireID uuid.UUID) (*assetapp.ConsistencyReport, error)
}

// TireHandler handles tire lifecycle endpoints
type TireHandler struct {
	BaseHandler
	tires TireService
}

// NewTireHandler creates a new TireHandler
func NewTireHandler(tires TireService) *TireHandler {
	return &TireHandler{tires: tires}
}

// Get returns a tire. GET /tires/:id
func (h *TireHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	tire, err := h.tires.GetTire(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tire)
}

// GetBySerial looks a tire up by serial number. GET /tires/serial/:serial
func (h *TireHandler) GetBySerial(c *gin.Context) {
	tire, err := h.tires.GetTireBySerial(c.Request.Context(), c.Param("serial"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tire)
}

// Install mounts a tire. POST /tires/:id/install
func (h *TireHandler) Install(c *gin.Context) {
	var req assetapp.InstallTireRequest
	h.command(c, &req, func(ctx context.Context, tireID, actorID uuid.UUID) (*assetapp.TireResponse, error) {
		return h.tires.InstallTire(ctx, tireID, actorID, req)
	})
}

// Remove takes a tire off its vehicle. POST /tires/:id/remove
func (h *TireHandler) Remove(c *gin.Context) {
	var req assetapp.RemoveTireRequest
	h.command(c, &req, func(ctx context.Context, tireID, actorID uuid.UUID) (*assetapp.TireResponse, error) {
		return h.tires.RemoveTire(ctx, tireID, actorID, req)
	})
}

// MarkForRetread queues a used tire for retreading. POST /tires/:id/mark-for-retread
func (h *TireHandler) MarkForRetread(c *gin.Context) {
	var req assetapp.MarkForRetreadRequest
	h.command(c, &req, func(ctx context.Context, tireID, actorID uuid.UUID) (*assetapp.TireResponse, error) {
		return h.tires.MarkForRetread(ctx, tireID, actorID, req)
	})
}

// Dispose takes a tire out of the fleet. POST /tires/:id/dispose
func (h *TireHandler) Dispose(c *gin.Context) {
	var req assetapp.DisposeTireRequest
	h.command(c, &req, func(ctx context.Context, tireID, actorID uuid.UUID) (*assetapp.TireResponse, error) {
		return h.tires.DisposeTire(ctx, tireID, actorID, req)
	})
}

// ReverseDisposal returns a disposed tire to used stock. POST /tires/:id/reverse-disposal
func (h *TireHandler) ReverseDisposal(c *gin.Context) {
	var req assetapp.ReverseDisposalRequest
	h.command(c, &req, func(ctx context.Context, tireID, actorID uuid.UUID) (*assetapp.TireResponse, error) {
		return h.tires.ReverseDisposal(ctx, tireID, actorID, req)
	})
}

// Movements pages through a tire's history. GET /tires/:id/movements?after=&limit=
func (h *TireHandler) Movements(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	after, err := queryInt64(c, "after", 0)
	if err != nil || after < 0 {
		h.BadRequest(c, "invalid after")
		return
	}
	limit, err := queryInt64(c, "limit", defaultMovementPage)
	if err != nil || limit < 1 || limit > maxMovementPage {
		h.BadRequest(c, "limit must be between 1 and 500")
		return
	}
	page, err := h.tires.ListMovements(c.Request.Context(), id, after, int(limit))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	meta := dto.Meta{Count: len(page)}
	if len(page) == int(limit) {
		meta.NextAfter = page[len(page)-1].Sequence
	}
	h.SuccessWithMeta(c, page, meta)
}

// Consistency checks the stored status against the movement log. GET /tires/:id/consistency
func (h *TireHandler) Consistency(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.tires.VerifyTireConsistency(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// command binds req, resolves the tire and actor, runs fn and answers with the tire
func (h *TireHandler) command(c *gin.Context, req any, fn func(ctx context.Context, tireID, actorID uuid.UUID) (*assetapp.TireResponse, error)) {
	tireID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	if err := bindOptionalJSON(c, req); err != nil {
		h.BindError(c, err)
		return
	}
	tire, err := fn(c.Request.Context(), tireID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tire)
}
