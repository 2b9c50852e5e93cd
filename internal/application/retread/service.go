package retread

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appasset "github.com/tyrefleet/backend/internal/application/asset"
	"github.com/tyrefleet/backend/internal/application/txscope"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/retread"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReceiptPoster books a receipt inside the receiving transaction
type ReceiptPoster interface {
	Post(ctx context.Context, repos txscope.Repositories, ev finance.ReceiptEvent) (*finance.Transaction, decimal.Decimal, error)
}

// Service runs the retread workflow: bind tires, send them out, take back outcomes
type Service struct {
	scope          txscope.Scope
	orders         retread.OrderRepository
	actors         identity.ActorResolver
	recorder       *appasset.Recorder
	poster         ReceiptPoster
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LifecycleMetrics
	logger         *zap.Logger
}

// NewService creates a new retread Service
func NewService(
	scope txscope.Scope,
	orders retread.OrderRepository,
	actors identity.ActorResolver,
	recorder *appasset.Recorder,
	poster ReceiptPoster,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:    scope,
		orders:   orders,
		actors:   actors,
		recorder: recorder,
		poster:   poster,
		clock:    recorder.Clock(),
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the lifecycle metrics collector
func (s *Service) SetMetrics(m *telemetry.LifecycleMetrics) {
	s.metrics = m
}

// Create creates a DRAFT retread order. USED_STORE tires are marked for retread in the
// same transaction; ON_VEHICLE tires stay mounted until removed and marked.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req CreateRetreadOrderRequest) (_ *RetreadOrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "retread", "Create")
	telemetry.SetAttributes(span, telemetry.SpanAttrSupplierID, req.SupplierID.String(), telemetry.SpanAttrQuantity, len(req.Tires))
	defer func() { telemetry.EndSpan(span, err) }()

	if len(req.Tires) == 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "retread order needs at least one tire")
	}
	var order *retread.Order
	events, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error {
		supplier, err := repos.Suppliers().FindByID(ctx, req.SupplierID)
		if err != nil {
			return err
		}
		if err := supplier.EnsureCanOrder(); err != nil {
			return err
		}
		number, err := repos.Sequences().Next(ctx, shared.PrefixRetreadOrder, s.clock.Now())
		if err != nil {
			return err
		}
		order, err = retread.NewOrder(s.clock, number, req.SupplierID, actorID, strings.TrimSpace(req.Notes))
		if err != nil {
			return err
		}

		batch := s.recorder.Begin(repos, events)
		for _, in := range req.Tires {
			if err := s.bindTire(ctx, repos, batch, order, actorID, in); err != nil {
				return err
			}
		}
		if _, err := batch.Flush(ctx); err != nil {
			return err
		}
		if err := repos.RetreadOrders().Create(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("retread order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("tires", len(order.Items)))
	s.publish(ctx, events)
	resp := ToRetreadOrderResponse(order)
	return &resp, nil
}

func (s *Service) bindTire(ctx context.Context, repos txscope.Repositories, batch *appasset.Batch,
	order *retread.Order, actorID uuid.UUID, in RetreadTireInput) error {
	tire, err := repos.Tires().FindByIDForUpdate(ctx, in.TireID)
	if err != nil {
		return err
	}
	if tire.IsSuperseded() || (tire.Status != asset.StatusUsedStore && tire.Status != asset.StatusOnVehicle) {
		return shared.NewIneligibleTireError(tire.ID.String(), string(tire.Status), string(asset.TriggerMarkedForRetread))
	}
	open, err := repos.RetreadOrders().FindOpenItemByTire(ctx, tire.ID)
	if err != nil {
		return err
	}
	if open != nil {
		return shared.NewStateConflictError("Tire", tire.ID.String(), string(tire.Status), "BIND_RETREAD",
			"tire is already on an open retread order")
	}
	item, err := order.AddTire(tire.ID, in.QuotedCost, s.clock.Now())
	if err != nil {
		return err
	}
	if tire.Status != asset.StatusUsedStore {
		return nil
	}
	mi := asset.MovementInput{ActorID: actorID, Reference: &asset.Reference{Kind: asset.RefRetreadLine, ID: item.ID}}
	_, err = batch.TransitionLocked(ctx, tire, mi, appasset.Apply(asset.TriggerMarkedForRetread))
	return err
}

// Send dispatches the order to the retreader. Every bound tire must be AWAITING_RETREAD.
func (s *Service) Send(ctx context.Context, orderID, actorID uuid.UUID) (_ *RetreadOrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "retread", "Send")
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorize(ctx, actorID, identity.CapApproveRetreadOrder); err != nil {
		return nil, err
	}
	var order *retread.Order
	events, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error {
		var err error
		order, err = repos.RetreadOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Send(actorID, s.clock.Now()); err != nil {
			return err
		}
		batch := s.recorder.Begin(repos, events)
		ref := &asset.Reference{Kind: asset.RefRetreadOrder, ID: order.ID}
		for _, item := range order.Items {
			tire, err := repos.Tires().FindByIDForUpdate(ctx, item.TireID)
			if err != nil {
				return err
			}
			if tire.Status != asset.StatusAwaitingRetread {
				return shared.NewIneligibleTireError(tire.ID.String(), string(tire.Status), string(asset.TriggerSentForRetread))
			}
			mi := asset.MovementInput{ActorID: actorID, Reference: ref}
			if _, err := batch.TransitionLocked(ctx, tire, mi, appasset.Apply(asset.TriggerSentForRetread)); err != nil {
				return err
			}
		}
		if _, err := batch.Flush(ctx); err != nil {
			return err
		}
		if err := repos.RetreadOrders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("retread order sent",
		zap.String("order_id", order.ID.String()),
		zap.Int("tires", len(order.Items)))
	s.publish(ctx, events)
	resp := ToRetreadOrderResponse(order)
	return &resp, nil
}

// Receive records outcomes for pending lines on one RRN. Accepted lines create the
// retreaded identity and supersede the original; rejected lines return the tire to used stock.
func (s *Service) Receive(ctx context.Context, orderID, actorID uuid.UUID, req ReceiveRetreadRequest) (_ *RetreadReceiptResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "retread", "Receive")
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String(), telemetry.SpanAttrQuantity, len(req.Outcomes))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validateOutcomes(req.Outcomes); err != nil {
		return nil, err
	}
	var (
		order    *retread.Order
		receipt  *retread.Receipt
		newTires []uuid.UUID
	)
	events, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error {
		var err error
		order, err = repos.RetreadOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		receipt, newTires, err = s.receiveLocked(ctx, repos, events, order, actorID, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("retread outcomes received",
		zap.String("order_id", order.ID.String()),
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.Int("accepted", receipt.AcceptedCount),
		zap.Int("rejected", receipt.RejectedCount),
		zap.String("total_cost", receipt.TotalCost.StringFixed(2)),
		zap.String("order_status", string(order.Status)))
	if s.metrics != nil {
		s.metrics.RecordRetreadOutcome(ctx, string(retread.OutcomeAccepted), receipt.AcceptedCount)
		s.metrics.RecordRetreadOutcome(ctx, string(retread.OutcomeRejected), receipt.RejectedCount)
		s.metrics.RecordTiresReceived(ctx, string(asset.KindRetreaded), receipt.AcceptedCount)
	}
	s.publish(ctx, events)
	return toReceiptResponse(order, receipt, newTires), nil
}

func validateOutcomes(outcomes []OutcomeInput) error {
	if len(outcomes) == 0 {
		return shared.NewValidationError(shared.CodeInvalidInput, "receipt needs at least one outcome")
	}
	seen := make(map[uuid.UUID]struct{}, len(outcomes))
	for _, o := range outcomes {
		if _, dup := seen[o.LineID]; dup {
			return shared.NewValidationError(shared.CodeInvalidInput, "line appears twice on one receipt").
				WithEntity("RetreadOrderItem", o.LineID.String())
		}
		seen[o.LineID] = struct{}{}
		switch retread.Outcome(o.Outcome) {
		case retread.OutcomeAccepted:
			if strings.TrimSpace(o.NewSerialNumber) == "" {
				return shared.NewValidationError(shared.CodeInvalidInput, "accepted retread needs a new serial number").
					WithEntity("RetreadOrderItem", o.LineID.String())
			}
			if o.RetreadCost.IsNegative() {
				return shared.NewValidationError(shared.CodeInvalidInput, "retread cost cannot be negative")
			}
		case retread.OutcomeRejected:
		default:
			return shared.NewValidationError(shared.CodeInvalidInput, "outcome must be ACCEPTED or REJECTED")
		}
	}
	return nil
}

func (s *Service) receiveLocked(ctx context.Context, repos txscope.Repositories, events *txscope.Events,
	order *retread.Order, actorID uuid.UUID, req ReceiveRetreadRequest) (*retread.Receipt, []uuid.UUID, error) {
	at := s.clock.Now()
	if !order.Status.CanReceive() {
		return nil, nil, shared.NewStateConflictError("RetreadOrder", order.ID.String(), string(order.Status), "RECEIVE",
			"order is not at the retreader")
	}
	serials := make([]string, 0, len(req.Outcomes))
	for _, o := range req.Outcomes {
		if retread.Outcome(o.Outcome) == retread.OutcomeAccepted {
			serials = append(serials, strings.TrimSpace(o.NewSerialNumber))
		}
	}
	used, err := repos.Tires().ExistsBySerials(ctx, serials)
	if err != nil {
		return nil, nil, err
	}
	if len(used) > 0 {
		return nil, nil, shared.NewValidationError(shared.CodeAlreadyExists, "serial numbers already in use: "+strings.Join(used, ", "))
	}

	number, err := repos.Sequences().Next(ctx, shared.PrefixRetreadReceipt, at)
	if err != nil {
		return nil, nil, err
	}
	receipt, err := retread.NewReceipt(number, order, actorID, strings.TrimSpace(req.Notes), at)
	if err != nil {
		return nil, nil, err
	}

	batch := s.recorder.Begin(repos, events)
	newTires := make([]uuid.UUID, 0, len(serials))
	for _, o := range req.Outcomes {
		resultID, err := s.applyOutcome(ctx, repos, batch, order, receipt, actorID, o, at)
		if err != nil {
			return nil, nil, err
		}
		if resultID != nil {
			newTires = append(newTires, *resultID)
		}
	}
	if _, err := batch.Flush(ctx); err != nil {
		return nil, nil, err
	}
	order.DeriveReceiptStatus()
	if err := repos.RetreadOrders().SaveWithLock(ctx, order); err != nil {
		return nil, nil, err
	}
	if err := repos.RetreadReceipts().Create(ctx, receipt); err != nil {
		return nil, nil, err
	}

	if receipt.TotalCost.IsPositive() {
		tx, _, err := s.poster.Post(ctx, repos, finance.ReceiptEvent{
			Kind:          finance.ReceiptKindRetread,
			SupplierID:    order.SupplierID,
			Amount:        receipt.TotalCost,
			ReceiptID:     receipt.ID,
			ReceiptNumber: receipt.ReceiptNumber,
			OrderID:       order.ID,
			ActorID:       actorID,
			OccurredAt:    at,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := repos.RetreadReceipts().LinkTransaction(ctx, receipt.ID, tx.ID); err != nil {
			return nil, nil, err
		}
		receipt.AccountingTransactionID = &tx.ID
	}

	events.Collect(order)
	events.Add(retread.NewReceivedEvent(order, receipt))
	return receipt, newTires, nil
}

// applyOutcome records one verdict and returns the id of the retreaded tire, if any
func (s *Service) applyOutcome(ctx context.Context, repos txscope.Repositories, batch *appasset.Batch,
	order *retread.Order, receipt *retread.Receipt, actorID uuid.UUID, o OutcomeInput, at time.Time) (*uuid.UUID, error) {
	outcome := retread.Outcome(o.Outcome)
	item, err := order.RecordOutcome(o.LineID, outcome, o.RetreadCost, o.RejectionReason, receipt.ID, at)
	if err != nil {
		return nil, err
	}
	original, err := repos.Tires().FindByIDForUpdate(ctx, item.TireID)
	if err != nil {
		return nil, err
	}
	ref := &asset.Reference{Kind: asset.RefRetreadLine, ID: item.ID}

	if outcome == retread.OutcomeRejected {
		mi := asset.MovementInput{ActorID: actorID, Reference: ref, Note: item.RejectionReason}
		if _, err := batch.TransitionLocked(ctx, original, mi, appasset.Apply(asset.TriggerRetreadRejected)); err != nil {
			return nil, err
		}
		receipt.Add(item, nil, "")
		return nil, nil
	}

	if original.Status != asset.StatusAtRetreadSupplier {
		return nil, shared.NewIneligibleTireError(original.ID.String(), string(original.Status), string(asset.TriggerRetreadAccepted))
	}
	cost := item.RetreadCost
	tire, err := asset.NewRetreadedTire(s.clock, o.NewSerialNumber, original, cost, order.SupplierID, item.ID)
	if err != nil {
		return nil, err
	}
	mi := asset.MovementInput{ActorID: actorID, Reference: ref}
	if _, err := batch.Create(ctx, tire, asset.TriggerRetreadAccepted, mi, &cost); err != nil {
		return nil, err
	}
	if err := original.MarkSuperseded(tire.ID, at); err != nil {
		return nil, err
	}
	if err := repos.Tires().Update(ctx, original); err != nil {
		return nil, err
	}
	item.ResultTireID = &tire.ID
	receipt.Add(item, &tire.ID, tire.SerialNumber)
	return &tire.ID, nil
}

// Cancel cancels an order before it is sent. Marked tires go back to used stock.
func (s *Service) Cancel(ctx context.Context, orderID, actorID uuid.UUID) (_ *RetreadOrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "retread", "Cancel")
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String())
	defer func() { telemetry.EndSpan(span, err) }()

	var order *retread.Order
	events, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error {
		var err error
		order, err = repos.RetreadOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(s.clock.Now()); err != nil {
			return err
		}
		batch := s.recorder.Begin(repos, events)
		ref := &asset.Reference{Kind: asset.RefRetreadOrder, ID: order.ID}
		for _, item := range order.Items {
			tire, err := repos.Tires().FindByIDForUpdate(ctx, item.TireID)
			if err != nil {
				return err
			}
			// mounted tires were never marked
			if tire.Status != asset.StatusAwaitingRetread {
				continue
			}
			mi := asset.MovementInput{ActorID: actorID, Reference: ref, Note: "retread order cancelled"}
			if _, err := batch.TransitionLocked(ctx, tire, mi, appasset.Apply(asset.TriggerRetreadUnmarked)); err != nil {
				return err
			}
		}
		if _, err := batch.Flush(ctx); err != nil {
			return err
		}
		if err := repos.RetreadOrders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("retread order cancelled", zap.String("order_id", order.ID.String()))
	s.publish(ctx, events)
	resp := ToRetreadOrderResponse(order)
	return &resp, nil
}

// Close closes a fully received order. Nothing can be received on it afterwards.
func (s *Service) Close(ctx context.Context, orderID, actorID uuid.UUID) (_ *RetreadOrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "retread", "Close")
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderID, orderID.String(), telemetry.SpanAttrActorID, actorID.String())
	defer func() { telemetry.EndSpan(span, err) }()

	var order *retread.Order
	events, err := s.execute(ctx, func(ctx context.Context, repos txscope.Repositories, events *txscope.Events) error {
		var err error
		order, err = repos.RetreadOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Close(s.clock.Now()); err != nil {
			return err
		}
		if err := repos.RetreadOrders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("retread order closed",
		zap.String("order_id", order.ID.String()),
		zap.String("actor_id", actorID.String()))
	s.publish(ctx, events)
	resp := ToRetreadOrderResponse(order)
	return &resp, nil
}

// Get returns a retread order with its lines
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*RetreadOrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToRetreadOrderResponse(order)
	return &resp, nil
}

func (s *Service) authorize(ctx context.Context, actorID uuid.UUID, c identity.Capability) error {
	actor, err := s.actors.Resolve(ctx, actorID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return shared.NewAuthorizationError(actorID.String(), string(c), "unknown actor")
		}
		return err
	}
	return actor.Require(c)
}

func (s *Service) execute(ctx context.Context,
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

func (s *Service) publish(ctx context.Context, events *txscope.Events) {
	if err := events.Publish(ctx, s.eventPublisher); err != nil {
		s.logger.Error("failed to publish retread events", zap.Error(err))
	}
}
