package purchasing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

// GoodsReceipt (GRN) records one receiving event against one or more lines of a purchase order
type GoodsReceipt struct {
	ID                      uuid.UUID
	ReceiptNumber           string
	PurchaseOrderID         uuid.UUID
	SupplierID              uuid.UUID
	BatchRef                string
	ReceivedAt              time.Time
	ReceivedBy              uuid.UUID
	TotalCost               decimal.Decimal
	AccountingTransactionID *uuid.UUID
	Items                   []GoodsReceiptItem
}

// GoodsReceiptItem is the quantity of one line received on a GRN
type GoodsReceiptItem struct {
	ID                  uuid.UUID
	ReceiptID           uuid.UUID
	PurchaseOrderItemID uuid.UUID
	Quantity            int
	UnitCost            decimal.Decimal
	SerialNumbers       []string
}

// LineTotal returns quantity x unit cost
func (i GoodsReceiptItem) LineTotal() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewGoodsReceipt creates an empty GRN for an order
func NewGoodsReceipt(number string, order *PurchaseOrder, batchRef string, receivedBy uuid.UUID, at time.Time) (*GoodsReceipt, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "receipt number cannot be empty")
	}
	if receivedBy == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "receiving actor is required")
	}
	return &GoodsReceipt{
		ID:              uuid.New(),
		ReceiptNumber:   number,
		PurchaseOrderID: order.ID,
		SupplierID:      order.SupplierID,
		BatchRef:        strings.TrimSpace(batchRef),
		ReceivedAt:      at,
		ReceivedBy:      receivedBy,
		TotalCost:       decimal.Zero,
		Items:           make([]GoodsReceiptItem, 0),
	}, nil
}

// AddItem records received units of a line. Serial numbers, when given, must match the
// quantity and be unique within the receipt; otherwise they are generated from the GRN number.
func (g *GoodsReceipt) AddItem(line *PurchaseOrderItem, quantity int, serials []string) (*GoodsReceiptItem, error) {
	for _, existing := range g.Items {
		if existing.PurchaseOrderItemID == line.ID {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "line appears twice on one receipt").
				WithEntity(entityTypePurchaseOrderItem, line.ID.String())
		}
	}
	resolved, err := g.resolveSerials(quantity, serials)
	if err != nil {
		return nil, err
	}
	item := GoodsReceiptItem{
		ID:                  uuid.New(),
		ReceiptID:           g.ID,
		PurchaseOrderItemID: line.ID,
		Quantity:            quantity,
		UnitCost:            line.UnitPrice,
		SerialNumbers:       resolved,
	}
	g.Items = append(g.Items, item)
	g.TotalCost = g.TotalCost.Add(item.LineTotal()).Round(2)
	return &g.Items[len(g.Items)-1], nil
}

func (g *GoodsReceipt) resolveSerials(quantity int, serials []string) ([]string, error) {
	if len(serials) == 0 {
		offset := g.serialCount()
		out := make([]string, quantity)
		for i := range out {
			out[i] = fmt.Sprintf("%s-%03d", g.ReceiptNumber, offset+i+1)
		}
		return out, nil
	}
	if len(serials) != quantity {
		return nil, shared.NewValidationError(shared.CodeInvalidInput,
			"serial numbers given: "+strconv.Itoa(len(serials))+", quantity: "+strconv.Itoa(quantity))
	}
	seen := make(map[string]struct{}, len(serials))
	for _, it := range g.Items {
		for _, s := range it.SerialNumbers {
			seen[strings.ToUpper(s)] = struct{}{}
		}
	}
	out := make([]string, len(serials))
	for i, s := range serials {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "serial number cannot be empty")
		}
		if _, dup := seen[strings.ToUpper(s)]; dup {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "duplicate serial number "+s)
		}
		seen[strings.ToUpper(s)] = struct{}{}
		out[i] = s
	}
	return out, nil
}

func (g *GoodsReceipt) serialCount() int {
	n := 0
	for _, it := range g.Items {
		n += len(it.SerialNumbers)
	}
	return n
}

// TotalQuantity returns the number of tires on the receipt
func (g *GoodsReceipt) TotalQuantity() int {
	return g.serialCount()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
