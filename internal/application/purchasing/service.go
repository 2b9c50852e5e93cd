package purchasing

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appasset "github.com/tyrefleet/backend/internal/application/asset"
	"github.com/tyrefleet/backend/internal/application/txscope"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/purchasing"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReceiptPoster books a receipt inside the receiving transaction
type ReceiptPoster interface {
	Post(ctx context.Context, repos txscope.Repositories, ev finance.ReceiptEvent) (*finance.Transaction, decimal.Decimal, error)
}

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	scope          txscope.Scope
	orders         purchasing.PurchaseOrderRepository
	receipts       purchasing.GoodsReceiptRepository
	actors         identity.ActorResolver
	recorder       *appasset.Recorder
	poster         ReceiptPoster
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LifecycleMetrics
	logger         *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService. orders and receipts are
// the non-transactional repositories used for reads.
func NewPurchaseOrderService(
	scope txscope.Scope,
	orders purchasing.PurchaseOrderRepository,
	receipts purchasing.GoodsReceiptRepository,
	actors identity.ActorResolver,
	recorder *appasset.Recorder,
	poster ReceiptPoster,
	logger *zap.Logger,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		scope:    scope,
		orders:   orders,
		receipts: receipts,
		actors:   actors,
		recorder: recorder,
		poster:   poster,
		clock:    recorder.Clock(),
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the lifecycle metrics collector
func (s *PurchaseOrderService) SetMetrics(m *telemetry.LifecycleMetrics) {
	s.metrics = m
}

// Create creates a DRAFT purchase order with optional lines
func (s *PurchaseOrderService) Create(ctx context.Context, actorID uuid.UUID, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var order *purchasing.PurchaseOrder
	events, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error {
		supplier, err := repos.Suppliers().FindByID(ctx, req.SupplierID)
		if err != nil {
			return err
		}
		if err := supplier.EnsureCanOrder(); err != nil {
			return err
		}
		at := s.clock.Now()
		number, err := repos.Sequences().Next(ctx, shared.PrefixPurchaseOrder, at)
		if err != nil {
			return err
		}
		order, err = purchasing.NewPurchaseOrder(s.clock, number, req.SupplierID, actorID)
		if err != nil {
			return err
		}
		order.ExpectedDate = req.ExpectedDate
		order.Notes = strings.TrimSpace(req.Notes)
		for _, line := range req.Lines {
			if _, err := order.AddItem(lineSpec(line), line.Quantity, line.UnitPrice, at); err != nil {
				return err
			}
		}
		if err := repos.PurchaseOrders().Create(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("lines", len(order.Items)))
	s.publish(ctx, events)
	resp := ToPurchaseOrderResponse(order)
	return &resp, nil
}

// AddLine appends a line to a DRAFT or PENDING_APPROVAL order
func (s *PurchaseOrderService) AddLine(ctx context.Context, orderID uuid.UUID, req PurchaseOrderLineInput) (*PurchaseOrderResponse, error) {
	return s.modify(ctx, orderID, func(_ context.Context, _ txscope.Repositories, order *purchasing.PurchaseOrder) error {
		_, err := order.AddItem(lineSpec(req), req.Quantity, req.UnitPrice, s.clock.Now())
		return err
	})
}

// UpdateLine changes quantity and price of a line
func (s *PurchaseOrderService) UpdateLine(ctx context.Context, orderID, lineID uuid.UUID, req UpdatePurchaseOrderLineRequest) (*PurchaseOrderResponse, error) {
	return s.modify(ctx, orderID, func(_ context.Context, _ txscope.Repositories, order *purchasing.PurchaseOrder) error {
		_, err := order.UpdateItem(lineID, req.Quantity, req.UnitPrice, s.clock.Now())
		return err
	})
}

// DeleteLine removes a line that has no receipts and no tires tracing lineage to it
func (s *PurchaseOrderService) DeleteLine(ctx context.Context, orderID, lineID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.modify(ctx, orderID, func(ctx context.Context, repos txscope.Repositories, order *purchasing.PurchaseOrder) error {
		lineage, err := repos.Tires().CountByPurchaseLine(ctx, lineID)
		if err != nil {
			return err
		}
		return order.RemoveItem(lineID, lineage, s.clock.Now())
	})
}

// UpdateStatus applies a manual status change. Approval needs an approver other than
// the requester who holds purchase_order:approve; when approverID is empty the caller approves.
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, orderID, actorID uuid.UUID, req UpdateStatusRequest) (*StatusChangeResponse, error) {
	target := purchasing.PurchaseOrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	var order *purchasing.PurchaseOrder
	var changed bool
	events, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error {
		var err error
		order, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		var approver *uuid.UUID
		if target == purchasing.StatusApproved && order.Status.CanTransitionTo(target) {
			id := actorID
			if req.ApproverID != nil {
				id = *req.ApproverID
			}
			if err := s.authorizeApproval(ctx, order, id); err != nil {
				return err
			}
			approver = &id
		}
		changed, err = order.ChangeStatus(target, approver, s.clock.Now())
		if err != nil || !changed {
			return err
		}
		if err := repos.PurchaseOrders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Info("purchase order status changed",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(order.Status)))
	}
	s.publish(ctx, events)
	return &StatusChangeResponse{OrderID: orderID, Status: string(order.Status), Changed: changed}, nil
}

// Delete removes a DRAFT or CANCELLED order
func (s *PurchaseOrderService) Delete(ctx context.Context, orderID uuid.UUID) error {
	_, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, _ *txscope.Events) error {
		order, err := repos.PurchaseOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.EnsureDeletable(); err != nil {
			return err
		}
		return repos.PurchaseOrders().Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("purchase order deleted", zap.String("order_id", orderID.String()))
	return nil
}

// Get returns an order with its lines
func (s *PurchaseOrderService) Get(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(order)
	return &resp, nil
}

// ListReceipts returns the GRNs of an order, oldest first
func (s *PurchaseOrderService) ListReceipts(ctx context.Context, orderID uuid.UUID) ([]GoodsReceiptResponse, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	receipts, err := s.receipts.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]GoodsReceiptResponse, len(receipts))
	for i := range receipts {
		out[i] = ToGoodsReceiptResponse(&receipts[i])
	}
	return out, nil
}

// lineSpec builds the tire spec of an order line
func lineSpec(in PurchaseOrderLineInput) asset.Spec {
	return asset.Spec{
		Size:  strings.TrimSpace(in.Size),
		Brand: strings.TrimSpace(in.Brand),
		Model: strings.TrimSpace(in.Model),
	}
}

func (s *PurchaseOrderService) authorizeApproval(ctx context.Context, order *purchasing.PurchaseOrder, approverID uuid.UUID) error {
	if approverID == order.RequestedBy {
		err := shared.NewAuthorizationError(approverID.String(), string(identity.CapApprovePurchaseOrder),
			"requester cannot approve their own purchase order")
		err.Code = shared.CodeSelfApproval
		return err
	}
	approver, err := s.actors.Resolve(ctx, approverID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return shared.NewAuthorizationError(approverID.String(), string(identity.CapApprovePurchaseOrder), "unknown approver")
		}
		return err
	}
	return approver.Require(identity.CapApprovePurchaseOrder)
}

// modify runs a line change on a locked order and saves it
func (s *PurchaseOrderService) modify(ctx context.Context, orderID uuid.UUID,
	fn func(ctx context.Context, repos txscope.Repositories, order *purchasing.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	var order *purchasing.PurchaseOrder
	_, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, _ *txscope.Events) error {
		var err error
		order, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, order); err != nil {
			return err
		}
		return repos.PurchaseOrders().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseOrderResponse(order)
	return &resp, nil
}

// execute runs fn in a transaction and returns the events to publish after commit
func (s *PurchaseOrderService) execute(ctx context.Context,
	fn func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error) (*txscope.Events, error) {
	events := &txscope.Events{}
	err := s.scope.Execute(ctx, func(ctx context.Context, repos txscope.Repositories) error {
		events.Reset()
		return fn(ctx, repos, events)
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *PurchaseOrderService) publish(ctx context.Context, events *txscope.Events) {
	if err := events.Publish(ctx, s.eventPublisher); err != nil {
		s.logger.Error("failed to publish purchasing events", zap.Error(err))
	}
}
