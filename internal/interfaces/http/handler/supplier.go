package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	partnerapp "github.com/tyrefleet/backend/internal/application/partner"
	"github.com/tyrefleet/backend/internal/interfaces/http/dto"
)

// SupplierService is the supplier registry surface the handler needs
type SupplierService interface {
	Create(ctx context.Context, actorID uuid.UUID, req partnerapp.CreateSupplierRequest) (*partnerapp.SupplierResponse, error)
	Get(ctx context.Context, supplierID uuid.UUID) (*partnerapp.SupplierResponse, error)
	List(ctx context.Context, filter partnerapp.SupplierListFilter) ([]partnerapp.SupplierResponse, int64, error)
	UpdateStatus(ctx context.Context, supplierID, actorID uuid.UUID, req partnerapp.UpdateSupplierStatusRequest) (*partnerapp.SupplierResponse, error)
}

// SupplierHandler handles supplier registration and status endpoints
type SupplierHandler struct {
	BaseHandler
	suppliers SupplierService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(suppliers SupplierService) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

// Create registers a supplier. POST /suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req partnerapp.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.suppliers.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one supplier. GET /suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List pages through suppliers. GET /suppliers?search=&status=&type=&page=&page_size=
func (h *SupplierHandler) List(c *gin.Context) {
	var filter partnerapp.SupplierListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	suppliers, total, err := h.suppliers.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, suppliers, dto.Meta{Count: len(suppliers), Total: total})
}

// UpdateStatus activates, deactivates or blocks a supplier. PUT /suppliers/:id/status
func (h *SupplierHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req partnerapp.UpdateSupplierStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.suppliers.UpdateStatus(c.Request.Context(), id, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
