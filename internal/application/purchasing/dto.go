package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/purchasing"
)

// ==================== Purchase Order DTOs ====================

// PurchaseOrderLineInput is one ordered tire spec
type PurchaseOrderLineInput struct {
	Size      string          `json:"size" binding:"required,max=50,tire_size"`
	Brand     string          `json:"brand" binding:"required,min=1,max=100"`
	Model     string          `json:"model" binding:"required,min=1,max=100"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseOrderRequest represents a request to create a purchase order
type CreatePurchaseOrderRequest struct {
	SupplierID   uuid.UUID                `json:"supplier_id" binding:"required"`
	ExpectedDate *time.Time               `json:"expected_date"`
	Notes        string                   `json:"notes" binding:"max=1000"`
	Lines        []PurchaseOrderLineInput `json:"lines" binding:"dive"`
}

// UpdatePurchaseOrderLineRequest changes quantity and price of a line
type UpdatePurchaseOrderLineRequest struct {
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// UpdateStatusRequest asks for a manual status change
type UpdateStatusRequest struct {
	Status     string     `json:"status" binding:"required"`
	ApproverID *uuid.UUID `json:"-"`
}

// ReceiveLineRequest receives units of one line
type ReceiveLineRequest struct {
	Quantity      int      `json:"quantity"`
	BatchRef      string   `json:"batch_ref" binding:"max=100"`
	SerialNumbers []string `json:"serial_numbers"`
}

// ReceiveOrderLineInput is one line of a multi-line receipt
type ReceiveOrderLineInput struct {
	LineID        uuid.UUID `json:"line_id" binding:"required"`
	Quantity      int       `json:"quantity"`
	SerialNumbers []string  `json:"serial_numbers"`
}

// ReceiveOrderRequest receives several lines on one GRN
type ReceiveOrderRequest struct {
	BatchRef string                  `json:"batch_ref" binding:"max=100"`
	Lines    []ReceiveOrderLineInput `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseOrderItemResponse represents a purchase order line in API responses
type PurchaseOrderItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Size              string          `json:"size"`
	Brand             string          `json:"brand"`
	Model             string          `json:"model"`
	Quantity          int             `json:"quantity"`
	ReceivedQuantity  int             `json:"received_quantity"`
	RemainingQuantity int             `json:"remaining_quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
	Version           int             `json:"version"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID            uuid.UUID                   `json:"id"`
	OrderNumber   string                      `json:"order_number"`
	SupplierID    uuid.UUID                   `json:"supplier_id"`
	Status        string                      `json:"status"`
	OrderDate     time.Time                   `json:"order_date"`
	ExpectedDate  *time.Time                  `json:"expected_date,omitempty"`
	RequestedBy   uuid.UUID                   `json:"requested_by"`
	ApprovedBy    *uuid.UUID                  `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time                  `json:"approved_at,omitempty"`
	Notes         string                      `json:"notes,omitempty"`
	TotalAmount   decimal.Decimal             `json:"total_amount"`
	TotalOrdered  int                         `json:"total_ordered"`
	TotalReceived int                         `json:"total_received"`
	Items         []PurchaseOrderItemResponse `json:"items"`
	Version       int                         `json:"version"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// StatusChangeResponse reports the outcome of a status request
type StatusChangeResponse struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
	Changed bool      `json:"changed"`
}

// ==================== Goods Receipt DTOs ====================

// GoodsReceiptItemResponse is one line on a GRN
type GoodsReceiptItemResponse struct {
	PurchaseOrderItemID uuid.UUID       `json:"purchase_order_item_id"`
	Quantity            int             `json:"quantity"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	SerialNumbers       []string        `json:"serial_numbers"`
}

// GoodsReceiptResponse represents a GRN in API responses
type GoodsReceiptResponse struct {
	ID                      uuid.UUID                  `json:"id"`
	ReceiptNumber           string                     `json:"receipt_number"`
	PurchaseOrderID         uuid.UUID                  `json:"purchase_order_id"`
	SupplierID              uuid.UUID                  `json:"supplier_id"`
	BatchRef                string                     `json:"batch_ref,omitempty"`
	ReceivedAt              time.Time                  `json:"received_at"`
	ReceivedBy              uuid.UUID                  `json:"received_by"`
	TotalCost               decimal.Decimal            `json:"total_cost"`
	AccountingTransactionID *uuid.UUID                 `json:"accounting_transaction_id,omitempty"`
	Items                   []GoodsReceiptItemResponse `json:"items"`
}

// ReceiveResponse is the result of a receiving call
type ReceiveResponse struct {
	LineID      *uuid.UUID           `json:"line_id,omitempty"`
	OrderID     uuid.UUID            `json:"order_id"`
	OrderStatus string               `json:"order_status"`
	Receipt     GoodsReceiptResponse `json:"receipt"`
	TireIDs     []uuid.UUID          `json:"tire_ids"`
}

// ToPurchaseOrderResponse converts a domain order to a response
func ToPurchaseOrderResponse(o *purchasing.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		SupplierID:    o.SupplierID,
		Status:        string(o.Status),
		OrderDate:     o.OrderDate,
		ExpectedDate:  o.ExpectedDate,
		RequestedBy:   o.RequestedBy,
		ApprovedBy:    o.ApprovedBy,
		ApprovedAt:    o.ApprovedAt,
		Notes:         o.Notes,
		TotalAmount:   o.TotalAmount,
		TotalOrdered:  o.TotalOrderedQuantity(),
		TotalReceived: o.TotalReceivedQuantity(),
		Items:         make([]PurchaseOrderItemResponse, len(o.Items)),
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for i, it := range o.Items {
		resp.Items[i] = PurchaseOrderItemResponse{
			ID:                it.ID,
			Size:              it.Spec.Size,
			Brand:             it.Spec.Brand,
			Model:             it.Spec.Model,
			Quantity:          it.Quantity,
			ReceivedQuantity:  it.ReceivedQuantity,
			RemainingQuantity: it.RemainingQuantity(),
			UnitPrice:         it.UnitPrice,
			LineTotal:         it.LineTotal(),
			Version:           it.Version,
		}
	}
	return resp
}

// ToGoodsReceiptResponse converts a GRN to a response
func ToGoodsReceiptResponse(g *purchasing.GoodsReceipt) GoodsReceiptResponse {
	resp := GoodsReceiptResponse{
		ID:                      g.ID,
		ReceiptNumber:           g.ReceiptNumber,
		PurchaseOrderID:         g.PurchaseOrderID,
		SupplierID:              g.SupplierID,
		BatchRef:                g.BatchRef,
		ReceivedAt:              g.ReceivedAt,
		ReceivedBy:              g.ReceivedBy,
		TotalCost:               g.TotalCost,
		AccountingTransactionID: g.AccountingTransactionID,
		Items:                   make([]GoodsReceiptItemResponse, len(g.Items)),
	}
	for i, it := range g.Items {
		resp.Items[i] = GoodsReceiptItemResponse{
			PurchaseOrderItemID: it.PurchaseOrderItemID,
			Quantity:            it.Quantity,
			UnitCost:            it.UnitCost,
			SerialNumbers:       it.SerialNumbers,
		}
	}
	return resp
}
