package purchasing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/application/txscope"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/purchasing"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type lineReceipt struct {
	lineID   uuid.UUID
	quantity int
	serials  []string
}

// ReceiveLine receives units of one purchase order line on a new GRN. Tires, stock,
// the line, the order status and the accounting transaction change in one transaction.
func (s *PurchaseOrderService) ReceiveLine(ctx context.Context, lineID, actorID uuid.UUID, req ReceiveLineRequest) (_ *ReceiveResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchasing", "ReceiveLine")
	telemetry.SetAttributes(span, telemetry.SpanAttrLineID, lineID.String(), telemetry.SpanAttrQuantity, req.Quantity)
	defer func() { telemetry.EndSpan(span, err) }()

	if req.Quantity <= 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "receive quantity must be positive").
			WithEntity("PurchaseOrderItem", lineID.String())
	}
	resp, err := s.receive(ctx, actorID, req.BatchRef, func(ctx context.Context, repos txscope.Repositories) (uuid.UUID, error) {
		return repos.PurchaseOrders().FindOrderIDByItem(ctx, lineID)
	}, []lineReceipt{{lineID: lineID, quantity: req.Quantity, serials: req.SerialNumbers}})
	if err != nil {
		return nil, err
	}
	resp.LineID = &lineID
	return resp, nil
}

// ReceiveOrder receives several lines of one order on a single GRN with one posting
func (s *PurchaseOrderService) ReceiveOrder(ctx context.Context, orderID, actorID uuid.UUID, req ReceiveOrderRequest) (_ *ReceiveResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchasing", "ReceiveOrder")
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())
	defer func() { telemetry.EndSpan(span, err) }()

	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "receipt needs at least one line")
	}
	lines := make([]lineReceipt, len(req.Lines))
	for i, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "receive quantity must be positive").
				WithEntity("PurchaseOrderItem", l.LineID.String())
		}
		lines[i] = lineReceipt{lineID: l.LineID, quantity: l.Quantity, serials: l.SerialNumbers}
	}
	return s.receive(ctx, actorID, req.BatchRef, func(context.Context, txscope.Repositories) (uuid.UUID, error) {
		return orderID, nil
	}, lines)
}

func (s *PurchaseOrderService) receive(ctx context.Context, actorID uuid.UUID, batchRef string,
	resolveOrder func(context.Context, txscope.Repositories) (uuid.UUID, error), lines []lineReceipt) (*ReceiveResponse, error) {
	var (
		order   *purchasing.PurchaseOrder
		grn     *purchasing.GoodsReceipt
		tireIDs []uuid.UUID
	)
	events, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error {
		orderID, err := resolveOrder(ctx, repos)
		if err != nil {
			return err
		}
		// header then lines, always in that order
		order, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		grn, tireIDs, err = s.receiveLocked(ctx, repos, events, order, actorID, batchRef, lines)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("goods received",
		zap.String("order_id", order.ID.String()),
		zap.String("receipt_number", grn.ReceiptNumber),
		zap.Int("tires", len(tireIDs)),
		zap.String("total_cost", grn.TotalCost.StringFixed(2)),
		zap.String("order_status", string(order.Status)))
	if s.metrics != nil {
		s.metrics.RecordTiresReceived(ctx, string(asset.KindNew), len(tireIDs))
	}
	s.publish(ctx, events)
	return &ReceiveResponse{
		OrderID:     order.ID,
		OrderStatus: string(order.Status),
		Receipt:     ToGoodsReceiptResponse(grn),
		TireIDs:     tireIDs,
	}, nil
}

func (s *PurchaseOrderService) receiveLocked(ctx context.Context, repos txscope.Repositories, events *txscope.Events,
	order *purchasing.PurchaseOrder, actorID uuid.UUID, batchRef string, lines []lineReceipt) (*purchasing.GoodsReceipt, []uuid.UUID, error) {
	at := s.clock.Now()
	number, err := repos.Sequences().Next(ctx, shared.PrefixGoodsReceipt, at)
	if err != nil {
		return nil, nil, err
	}
	grn, err := purchasing.NewGoodsReceipt(number, order, batchRef, actorID, at)
	if err != nil {
		return nil, nil, err
	}

	serials := make([]string, 0)
	for _, l := range lines {
		item, err := order.ReceiveItem(l.lineID, l.quantity, at)
		if err != nil {
			return nil, nil, err
		}
		gi, err := grn.AddItem(item, l.quantity, l.serials)
		if err != nil {
			return nil, nil, err
		}
		serials = append(serials, gi.SerialNumbers...)
	}
	used, err := repos.Tires().ExistsBySerials(ctx, serials)
	if err != nil {
		return nil, nil, err
	}
	if len(used) > 0 {
		return nil, nil, shared.NewValidationError(shared.CodeAlreadyExists, "serial numbers already in use: "+strings.Join(used, ", "))
	}
	if err := repos.GoodsReceipts().Create(ctx, grn); err != nil {
		return nil, nil, err
	}

	batch := s.recorder.Begin(repos, events)
	ref := &asset.Reference{Kind: asset.RefGoodsReceipt, ID: grn.ID}
	tireIDs := make([]uuid.UUID, 0, len(serials))
	for _, gi := range grn.Items {
		line := order.GetItem(gi.PurchaseOrderItemID)
		cost := line.UnitPrice
		for _, serial := range gi.SerialNumbers {
			tire, err := asset.NewPurchasedTire(s.clock, serial, line.Spec, cost, order.SupplierID, line.ID)
			if err != nil {
				return nil, nil, err
			}
			in := asset.MovementInput{ActorID: actorID, Reference: ref, Note: grn.BatchRef}
			if _, err := batch.Create(ctx, tire, asset.TriggerReceived, in, &cost); err != nil {
				return nil, nil, err
			}
			tireIDs = append(tireIDs, tire.ID)
		}
	}
	if _, err := batch.Flush(ctx); err != nil {
		return nil, nil, err
	}
	if err := repos.PurchaseOrders().SaveWithLock(ctx, order); err != nil {
		return nil, nil, err
	}

	if grn.TotalCost.IsPositive() {
		tx, _, err := s.poster.Post(ctx, repos, finance.ReceiptEvent{
			Kind:          finance.ReceiptKindPurchase,
			SupplierID:    order.SupplierID,
			Amount:        grn.TotalCost,
			ReceiptID:     grn.ID,
			ReceiptNumber: grn.ReceiptNumber,
			OrderID:       order.ID,
			ActorID:       actorID,
			OccurredAt:    at,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := repos.GoodsReceipts().LinkTransaction(ctx, grn.ID, tx.ID); err != nil {
			return nil, nil, err
		}
		grn.AccountingTransactionID = &tx.ID
	}

	events.Collect(order)
	events.Add(purchasing.NewGoodsReceivedEvent(order, grn))
	return grn, tireIDs, nil
}
