package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	retreadapp "github.com/tyrefleet/backend/internal/application/retread"
)

// RetreadService is the retread workflow surface the handler needs
type RetreadService interface {
	Create(ctx context.Context, actorID uuid.UUID, req retreadapp.CreateRetreadOrderRequest) (*retreadapp.RetreadOrderResponse, error)
	Get(ctx context.Context, orderID uuid.UUID) (*retreadapp.RetreadOrderResponse, error)
	Send(ctx context.Context, orderID, actorID uuid.UUID) (*retreadapp.RetreadOrderResponse, error)
	Receive(ctx context.Context, orderID, actorID uuid.UUID, req retreadapp.ReceiveRetreadRequest) (*retreadapp.RetreadReceiptResponse, error)
	Cancel(ctx context.Context, orderID, actorID uuid.UUID) (*retreadapp.RetreadOrderResponse, error)
	Close(ctx context.Context, orderID, actorID uuid.UUID) (*retreadapp.RetreadOrderResponse, error)
}

// RetreadOrderHandler handles retread order endpoints
type RetreadOrderHandler struct {
	BaseHandler
	retreads RetreadService
}

// NewRetreadOrderHandler creates a new RetreadOrderHandler
func NewRetreadOrderHandler(retreads RetreadService) *RetreadOrderHandler {
	return &RetreadOrderHandler{retreads: retreads}
}

// Create binds AWAITING_RETREAD tires to a new order. POST /retread-orders
func (h *RetreadOrderHandler) Create(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req retreadapp.CreateRetreadOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	order, err := h.retreads.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get returns a retread order. GET /retread-orders/:id
func (h *RetreadOrderHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.retreads.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Send dispatches the tires. POST /retread-orders/:id/send
func (h *RetreadOrderHandler) Send(c *gin.Context) {
	h.transition(c, h.retreads.Send)
}

// Cancel cancels the order and returns its tires to used stock. POST /retread-orders/:id/cancel
func (h *RetreadOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.retreads.Cancel)
}

// Close closes a fully received order. POST /retread-orders/:id/close
func (h *RetreadOrderHandler) Close(c *gin.Context) {
	h.transition(c, h.retreads.Close)
}

// Receive records outcomes on a new retread receipt. POST /retread-orders/:id/receive
func (h *RetreadOrderHandler) Receive(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req retreadapp.ReceiveRetreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	receipt, err := h.retreads.Receive(c.Request.Context(), id, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

func (h *RetreadOrderHandler) transition(c *gin.Context, fn func(ctx context.Context, orderID, actorID uuid.UUID) (*retreadapp.RetreadOrderResponse, error)) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
