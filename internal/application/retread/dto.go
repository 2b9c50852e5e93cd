package retread

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/retread"
)

// RetreadTireInput binds one tire to a new order
type RetreadTireInput struct {
	TireID     uuid.UUID       `json:"tire_id" binding:"required"`
	QuotedCost decimal.Decimal `json:"quoted_cost"`
}

// CreateRetreadOrderRequest represents a request to create a retread order
type CreateRetreadOrderRequest struct {
	SupplierID uuid.UUID          `json:"supplier_id" binding:"required"`
	Notes      string             `json:"notes" binding:"max=2000"`
	Tires      []RetreadTireInput `json:"tires" binding:"required,min=1,dive"`
}

// OutcomeInput is the retreader's verdict on one line
type OutcomeInput struct {
	LineID          uuid.UUID       `json:"line_id" binding:"required"`
	Outcome         string          `json:"outcome" binding:"required,oneof=ACCEPTED REJECTED"`
	RetreadCost     decimal.Decimal `json:"retread_cost"`
	NewSerialNumber string          `json:"new_serial_number" binding:"max=64"`
	RejectionReason string          `json:"rejection_reason" binding:"max=500"`
}

// ReceiveRetreadRequest represents one delivery of outcomes
type ReceiveRetreadRequest struct {
	Notes    string         `json:"notes" binding:"max=2000"`
	Outcomes []OutcomeInput `json:"outcomes" binding:"required,min=1,dive"`
}

// RetreadOrderItemResponse represents a retread line in API responses
type RetreadOrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	TireID          uuid.UUID       `json:"tire_id"`
	QuotedCost      decimal.Decimal `json:"quoted_cost"`
	Outcome         string          `json:"outcome"`
	RetreadCost     decimal.Decimal `json:"retread_cost"`
	ResultTireID    *uuid.UUID      `json:"result_tire_id,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	ReceiptID       *uuid.UUID      `json:"receipt_id,omitempty"`
}

// RetreadOrderResponse represents a retread order in API responses
type RetreadOrderResponse struct {
	ID          uuid.UUID                  `json:"id"`
	OrderNumber string                     `json:"order_number"`
	SupplierID  uuid.UUID                  `json:"supplier_id"`
	Status      string                     `json:"status"`
	RequestedBy uuid.UUID                  `json:"requested_by"`
	SentBy      *uuid.UUID                 `json:"sent_by,omitempty"`
	SentAt      *time.Time                 `json:"sent_at,omitempty"`
	Notes       string                     `json:"notes,omitempty"`
	Pending     int                        `json:"pending"`
	Items       []RetreadOrderItemResponse `json:"items"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
	Version     int                        `json:"version"`
}

// RetreadReceiptResponse is the result of receiving outcomes
type RetreadReceiptResponse struct {
	ReceiptID               uuid.UUID       `json:"receipt_id"`
	ReceiptNumber           string          `json:"receipt_number"`
	OrderID                 uuid.UUID       `json:"order_id"`
	OrderStatus             string          `json:"order_status"`
	AcceptedCount           int             `json:"accepted_count"`
	RejectedCount           int             `json:"rejected_count"`
	TotalCost               decimal.Decimal `json:"total_cost"`
	AccountingTransactionID *uuid.UUID      `json:"accounting_transaction_id,omitempty"`
	NewTireIDs              []uuid.UUID     `json:"new_tire_ids"`
}

// ToRetreadOrderResponse converts a domain Order to RetreadOrderResponse
func ToRetreadOrderResponse(o *retread.Order) RetreadOrderResponse {
	items := make([]RetreadOrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = RetreadOrderItemResponse{
			ID:              it.ID,
			TireID:          it.TireID,
			QuotedCost:      it.QuotedCost,
			Outcome:         string(it.Outcome),
			RetreadCost:     it.RetreadCost,
			ResultTireID:    it.ResultTireID,
			RejectionReason: it.RejectionReason,
			ReceiptID:       it.ReceiptID,
		}
	}
	return RetreadOrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		SupplierID:  o.SupplierID,
		Status:      string(o.Status),
		RequestedBy: o.RequestedBy,
		SentBy:      o.SentBy,
		SentAt:      o.SentAt,
		Notes:       o.Notes,
		Pending:     o.PendingCount(),
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Version:     o.Version,
	}
}

func toReceiptResponse(o *retread.Order, r *retread.Receipt, newTires []uuid.UUID) *RetreadReceiptResponse {
	return &RetreadReceiptResponse{
		ReceiptID:               r.ID,
		ReceiptNumber:           r.ReceiptNumber,
		OrderID:                 o.ID,
		OrderStatus:             string(o.Status),
		AcceptedCount:           r.AcceptedCount,
		RejectedCount:           r.RejectedCount,
		TotalCost:               r.TotalCost,
		AccountingTransactionID: r.AccountingTransactionID,
		NewTireIDs:              newTires,
	}
}
