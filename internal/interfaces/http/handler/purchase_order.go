package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	purchasingapp "github.com/tyrefleet/backend/internal/application/purchasing"
)

// PurchaseOrderService is the purchasing surface the handler needs
type PurchaseOrderService interface {
	Create(ctx context.Context, actorID uuid.UUID, req purchasingapp.CreatePurchaseOrderRequest) (*purchasingapp.PurchaseOrderResponse, error)
	Get(ctx context.Context, orderID uuid.UUID) (*purchasingapp.PurchaseOrderResponse, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	UpdateStatus(ctx context.Context, orderID, actorID uuid.UUID, req purchasingapp.UpdateStatusRequest) (*purchasingapp.StatusChangeResponse, error)
	AddLine(ctx context.Context, orderID uuid.UUID, req purchasingapp.PurchaseOrderLineInput) (*purchasingapp.PurchaseOrderResponse, error)
	UpdateLine(ctx context.Context, orderID, lineID uuid.UUID, req purchasingapp.UpdatePurchaseOrderLineRequest) (*purchasingapp.PurchaseOrderResponse, error)
	DeleteLine(ctx context.Context, orderID, lineID uuid.UUID) (*purchasingapp.PurchaseOrderResponse, error)
	ReceiveLine(ctx context.Context, lineID, actorID uuid.UUID, req purchasingapp.ReceiveLineRequest) (*purchasingapp.ReceiveResponse, error)
	ReceiveOrder(ctx context.Context, orderID, actorID uuid.UUID, req purchasingapp.ReceiveOrderRequest) (*purchasingapp.ReceiveResponse, error)
	ListReceipts(ctx context.Context, orderID uuid.UUID) ([]purchasingapp.GoodsReceiptResponse, error)
}

// PurchaseOrderHandler handles purchase order and goods receipt endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orders PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orders PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// Create opens a DRAFT order. POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req purchasingapp.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orders.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get returns an order with its lines. GET /purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete removes a DRAFT or CANCELLED order. DELETE /purchase-orders/:id
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateStatus applies a manual status change. The authenticated actor is the
// approver when the target is APPROVED. PUT /purchase-orders/:id/status
func (h *PurchaseOrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req purchasingapp.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.orders.UpdateStatus(c.Request.Context(), id, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddLine adds a line to a DRAFT or PENDING_APPROVAL order. POST /purchase-orders/:id/lines
func (h *PurchaseOrderHandler) AddLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req purchasingapp.PurchaseOrderLineInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orders.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// UpdateLine changes quantity and price of a line. PUT /purchase-orders/:id/lines/:line_id
func (h *PurchaseOrderHandler) UpdateLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(c, "line_id")
	if !ok {
		return
	}
	var req purchasingapp.UpdatePurchaseOrderLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.orders.UpdateLine(c.Request.Context(), id, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// DeleteLine removes a line that has no receipts. DELETE /purchase-orders/:id/lines/:line_id
func (h *PurchaseOrderHandler) DeleteLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathID(c, "line_id")
	if !ok {
		return
	}
	order, err := h.orders.DeleteLine(c.Request.Context(), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ReceiveLine receives units of one line on a new GRN. POST /purchase-orders/lines/:line_id/receive
func (h *PurchaseOrderHandler) ReceiveLine(c *gin.Context) {
	lineID, ok := h.pathID(c, "line_id")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req purchasingapp.ReceiveLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.orders.ReceiveLine(c.Request.Context(), lineID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ReceiveOrder receives several lines on one GRN. POST /purchase-orders/:id/receive
func (h *PurchaseOrderHandler) ReceiveOrder(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req purchasingapp.ReceiveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.orders.ReceiveOrder(c.Request.Context(), id, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListReceipts returns the GRNs of an order. GET /purchase-orders/:id/receipts
func (h *PurchaseOrderHandler) ListReceipts(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	receipts, err := h.orders.ListReceipts(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipts)
}
