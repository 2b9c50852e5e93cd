package asset

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/application/txscope"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TireService handles tire lifecycle operations outside the receiving workflows
type TireService struct {
	scope          txscope.Scope
	tires          asset.TireRepository
	movements      asset.MovementRepository
	actors         identity.ActorResolver
	recorder       *Recorder
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTireService creates a new TireService. tires and movements are the
// non-transactional repositories used for reads.
func NewTireService(
	scope txscope.Scope,
	tires asset.TireRepository,
	movements asset.MovementRepository,
	actors identity.ActorResolver,
	recorder *Recorder,
	logger *zap.Logger,
) *TireService {
	return &TireService{
		scope:     scope,
		tires:     tires,
		movements: movements,
		actors:    actors,
		recorder:  recorder,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TireService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// InstallTire mounts an IN_STORE or USED_STORE tire on a vehicle position
func (s *TireService) InstallTire(ctx context.Context, tireID, actorID uuid.UUID, req InstallTireRequest) (*TireResponse, error) {
	odometer := req.Odometer
	change := func(t *asset.Tire, at time.Time, in *asset.MovementInput) (asset.Trigger, error) {
		if _, _, err := t.Apply(asset.TriggerInstalled, at); err != nil {
			return "", err
		}
		a, err := t.Mount(req.VehicleID, req.PositionID, odometer, at)
		if err != nil {
			return "", err
		}
		in.Reference = &asset.Reference{Kind: asset.RefVehicleAssignment, ID: a.ID}
		in.Odometer = &odometer
		return asset.TriggerInstalled, nil
	}
	return s.transition(ctx, "InstallTire", tireID, asset.MovementInput{ActorID: actorID, Note: req.Note}, change)
}

// RemoveTire takes a mounted tire off its vehicle into used stock
func (s *TireService) RemoveTire(ctx context.Context, tireID, actorID uuid.UUID, req RemoveTireRequest) (*TireResponse, error) {
	odometer := req.Odometer
	change := func(t *asset.Tire, at time.Time, in *asset.MovementInput) (asset.Trigger, error) {
		if _, _, err := t.Apply(asset.TriggerRemoved, at); err != nil {
			return "", err
		}
		a, err := t.Unmount(odometer)
		if err != nil {
			return "", err
		}
		in.Reference = &asset.Reference{Kind: asset.RefVehicleAssignment, ID: a.ID}
		in.Odometer = &odometer
		return asset.TriggerRemoved, nil
	}
	return s.transition(ctx, "RemoveTire", tireID, asset.MovementInput{ActorID: actorID, Note: strings.TrimSpace(req.Reason)}, change)
}

// MarkForRetread moves a USED_STORE tire to AWAITING_RETREAD
func (s *TireService) MarkForRetread(ctx context.Context, tireID, actorID uuid.UUID, req MarkForRetreadRequest) (*TireResponse, error) {
	return s.transition(ctx, "MarkForRetread", tireID, asset.MovementInput{ActorID: actorID, Note: req.Note},
		Apply(asset.TriggerMarkedForRetread))
}

// DisposeTire takes a tire out of the fleet. The authorizer needs tire:dispose.
func (s *TireService) DisposeTire(ctx context.Context, tireID, authorizerID uuid.UUID, req DisposeTireRequest) (*TireResponse, error) {
	if err := s.authorize(ctx, authorizerID, identity.CapDisposeTire); err != nil {
		return nil, err
	}
	method := asset.DisposalMethod(req.Method)
	change := func(t *asset.Tire, at time.Time, _ *asset.MovementInput) (asset.Trigger, error) {
		if _, _, err := t.Dispose(method, req.Reason, authorizerID, at); err != nil {
			return "", err
		}
		return method.Trigger(), nil
	}
	return s.transition(ctx, "DisposeTire", tireID, asset.MovementInput{ActorID: authorizerID, Note: strings.TrimSpace(req.Reason)}, change)
}

// ReverseDisposal returns a DISPOSED tire to used stock. The authorizer needs tire:reverse_disposal.
func (s *TireService) ReverseDisposal(ctx context.Context, tireID, authorizerID uuid.UUID, req ReverseDisposalRequest) (*TireResponse, error) {
	if err := s.authorize(ctx, authorizerID, identity.CapReverseDisposal); err != nil {
		return nil, err
	}
	change := func(t *asset.Tire, at time.Time, _ *asset.MovementInput) (asset.Trigger, error) {
		if _, _, err := t.ReverseDisposal(req.Reason, at); err != nil {
			return "", err
		}
		return asset.TriggerDisposalReversal, nil
	}
	return s.transition(ctx, "ReverseDisposal", tireID, asset.MovementInput{ActorID: authorizerID, Note: strings.TrimSpace(req.Reason)}, change)
}

// GetTire returns a tire by id
func (s *TireService) GetTire(ctx context.Context, tireID uuid.UUID) (*TireResponse, error) {
	t, err := s.tires.FindByID(ctx, tireID)
	if err != nil {
		return nil, err
	}
	resp := ToTireResponse(t)
	return &resp, nil
}

// GetTireBySerial returns a tire by serial number
func (s *TireService) GetTireBySerial(ctx context.Context, serial string) (*TireResponse, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "serial number cannot be empty")
	}
	t, err := s.tires.FindBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	resp := ToTireResponse(t)
	return &resp, nil
}

// History returns the movement history of a tire as a lazy sequence. Each range over
// the result starts again from the first movement.
func (s *TireService) History(ctx context.Context, tireID uuid.UUID) iter.Seq2[*asset.Movement, error] {
	return asset.History(ctx, s.movements, tireID, 0, asset.DefaultHistoryPageSize)
}

// HistoryAfter resumes the movement history after the given sequence number
func (s *TireService) HistoryAfter(ctx context.Context, tireID uuid.UUID, afterSeq int64) iter.Seq2[*asset.Movement, error] {
	return asset.History(ctx, s.movements, tireID, afterSeq, asset.DefaultHistoryPageSize)
}

// ListMovements returns one page of history for the API
func (s *TireService) ListMovements(ctx context.Context, tireID uuid.UUID, afterSeq int64, limit int) ([]MovementResponse, error) {
	if _, err := s.tires.FindByID(ctx, tireID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > asset.DefaultHistoryPageSize {
		limit = asset.DefaultHistoryPageSize
	}
	page, err := s.movements.ListAfter(ctx, tireID, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	return ToMovementResponses(page), nil
}

// VerifyTireConsistency checks that a tire's status matches its last movement and that
// its sequence numbers have no gaps
func (s *TireService) VerifyTireConsistency(ctx context.Context, tireID uuid.UUID) (*ConsistencyReport, error) {
	t, err := s.tires.FindByID(ctx, tireID)
	if err != nil {
		return nil, err
	}
	last, err := s.movements.Last(ctx, tireID)
	if err != nil {
		return nil, err
	}
	count, err := s.movements.CountByTire(ctx, tireID)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		TireID:        tireID,
		Status:        string(t.Status),
		MovementCount: count,
		Consistent:    true,
	}
	switch {
	case last == nil:
		report.Consistent = false
		report.Inconsistency = "tire has no movements"
	case last.ToStatus != t.Status:
		report.LastToStatus = string(last.ToStatus)
		report.LastSequence = last.Sequence
		report.Consistent = false
		report.Inconsistency = "status differs from last movement"
	default:
		report.LastToStatus = string(last.ToStatus)
		report.LastSequence = last.Sequence
		if last.Sequence != count {
			report.Consistent = false
			report.Inconsistency = "movement sequence has gaps"
		}
	}
	if !report.Consistent {
		s.logger.Warn("tire inconsistent with movement ledger",
			zap.String("tire_id", tireID.String()),
			zap.String("status", report.Status),
			zap.String("last_to_status", report.LastToStatus),
			zap.String("problem", report.Inconsistency))
	}
	return report, nil
}

func (s *TireService) authorize(ctx context.Context, actorID uuid.UUID, c identity.Capability) error {
	actor, err := s.actors.Resolve(ctx, actorID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return shared.NewAuthorizationError(actorID.String(), string(c), "unknown actor")
		}
		return err
	}
	return actor.Require(c)
}

func (s *TireService) transition(ctx context.Context, op string, tireID uuid.UUID, in asset.MovementInput, change Change) (_ *TireResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "tire", op)
	telemetry.SetAttributes(span, telemetry.SpanAttrTireID, tireID.String())
	defer func() { telemetry.EndSpan(span, err) }()

	var events txscope.Events
	var result *Result
	err = s.scope.Execute(ctx, func(ctx context.Context, repos txscope.Repositories) error {
		events.Reset()
		batch := s.recorder.Begin(repos, &events)
		r, err := batch.Transition(ctx, tireID, in, change)
		if err != nil {
			return err
		}
		if _, err := batch.Flush(ctx); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tire transitioned",
		zap.String("tire_id", tireID.String()),
		zap.String("trigger", string(result.Movement.Trigger)),
		zap.String("from", string(result.Movement.FromStatus)),
		zap.String("to", string(result.Movement.ToStatus)),
		zap.Int64("sequence", result.Movement.Sequence))
	if err := events.Publish(ctx, s.eventPublisher); err != nil {
		s.logger.Error("failed to publish tire events", zap.String("tire_id", tireID.String()), zap.Error(err))
	}
	out := ToTireResponse(result.Tire)
	return &out, nil
}
