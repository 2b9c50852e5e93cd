package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/tyrefleet/backend/internal/application/finance"
	"github.com/tyrefleet/backend/internal/domain/finance"
)

// PostingService is the posting engine surface the handler needs
type PostingService interface {
	PostReceiptFinancials(ctx context.Context, ev finance.ReceiptEvent) (*financeapp.PostingResponse, error)
	RecordSupplierPayment(ctx context.Context, supplierID, actorID uuid.UUID, req financeapp.SupplierPaymentRequest) (*financeapp.PostingResponse, error)
	VerifySupplierBalance(ctx context.Context, supplierID uuid.UUID) (*financeapp.BalanceResponse, error)
	VerifyAllSupplierBalances(ctx context.Context) ([]financeapp.BalanceResponse, error)
}

// FinanceHandler handles supplier payment, balance and posting endpoints
type FinanceHandler struct {
	BaseHandler
	postings PostingService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(postings PostingService) *FinanceHandler {
	return &FinanceHandler{postings: postings}
}

// RecordPayment books money paid to a supplier. POST /suppliers/:id/payments
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	supplierID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req financeapp.SupplierPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.postings.RecordSupplierPayment(c.Request.Context(), supplierID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Balance compares a supplier's balance with its ledger. GET /suppliers/:id/balance
func (h *FinanceHandler) Balance(c *gin.Context) {
	supplierID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.postings.VerifySupplierBalance(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BalanceMismatches lists suppliers whose balance differs from their ledger.
// GET /finance/balance-mismatches
func (h *FinanceHandler) BalanceMismatches(c *gin.Context) {
	mismatches, err := h.postings.VerifyAllSupplierBalances(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mismatches)
}

// PostReceipt books a stored receipt that its workflow did not post. A receipt is
// only ever posted once. Needs finance:post. POST /finance/postings
func (h *FinanceHandler) PostReceipt(c *gin.Context) {
	actorID, ok := h.actor(c)
	if !ok {
		return
	}
	var req financeapp.PostReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	resp, err := h.postings.PostReceiptFinancials(c.Request.Context(), req.ToEvent(actorID, time.Time{}))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
