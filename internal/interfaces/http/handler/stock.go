package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	stockapp "github.com/tyrefleet/backend/internal/application/stock"
	"github.com/tyrefleet/backend/internal/domain/asset"
)

// StockService is the stock counter surface the handler needs
type StockService interface {
	List(ctx context.Context) ([]stockapp.StockItemResponse, error)
	ReconcileStock(ctx context.Context, actorID uuid.UUID, key *asset.StockKey) (*stockapp.ReconcileReport, error)
	SetReorderThresholds(ctx context.Context, req stockapp.SetThresholdsRequest) (*stockapp.StockItemResponse, error)
}

// StockHandler handles stock counter endpoints
type StockHandler struct {
	BaseHandler
	stock StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// List returns every stock counter. GET /stock
func (h *StockHandler) List(c *gin.Context) {
	items, err := h.stock.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Reconcile recomputes counters from tire rows, for one key when the body names
// one. POST /stock/reconcile
func (h *StockHandler) Reconcile(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req stockapp.ReconcileRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.BindError(c, err)
		return
	}
	var key *asset.StockKey
	if req.Key != nil {
		k := req.Key.Key()
		key = &k
	}
	report, err := h.stock.ReconcileStock(c.Request.Context(), actorID, key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// SetThresholds updates the reorder settings of a key. PUT /stock/thresholds
func (h *StockHandler) SetThresholds(c *gin.Context) {
	var req stockapp.SetThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	item, err := h.stock.SetReorderThresholds(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}
