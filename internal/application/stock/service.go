package stock

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/application/txscope"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/domain/stock"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReconcileLockName is the distributed lock key guarding reconcile runs
const ReconcileLockName = "stock:reconcile"

const reconcileEntity = "StockReconcile"

// ErrLockNotObtained is returned by a RunLock when another holder has the lock
var ErrLockNotObtained = errors.New("lock held by another instance")

// RunLock serializes a job across service instances
type RunLock interface {
	// Obtain takes the named lock for ttl and returns the function releasing it,
	// or ErrLockNotObtained
	Obtain(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

// IsReconcileInProgress reports whether err is the conflict Reconcile returns while
// another instance holds the run lock
func IsReconcileInProgress(err error) bool {
	var de *shared.DomainError
	return errors.As(err, &de) && de.EntityType == reconcileEntity && de.EntityID == ReconcileLockName
}

// Service maintains the denormalized stock counters
type Service struct {
	scope          txscope.Scope
	catalog        stock.CatalogRepository
	tires          asset.TireRepository
	actors         identity.ActorResolver
	clock          shared.Clock
	lock           RunLock
	lockTTL        time.Duration
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LifecycleMetrics
	logger         *zap.Logger
}

// NewService creates a stock Service. catalog and tires are the non-transactional
// repositories used for reads.
func NewService(scope txscope.Scope, catalog stock.CatalogRepository, tires asset.TireRepository,
	actors identity.ActorResolver, clock shared.Clock, logger *zap.Logger) *Service {
	return &Service{
		scope:   scope,
		catalog: catalog,
		tires:   tires,
		actors:  actors,
		clock:   clock,
		lockTTL: 5 * time.Minute,
		logger:  logger,
	}
}

// SetRunLock sets the lock that keeps reconcile runs from overlapping across instances
func (s *Service) SetRunLock(lock RunLock, ttl time.Duration) {
	s.lock = lock
	if ttl > 0 {
		s.lockTTL = ttl
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

// List returns every stock counter
func (s *Service) List(ctx context.Context) ([]StockItemResponse, error) {
	items, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StockItemResponse, len(items))
	for i := range items {
		out[i] = ToStockItemResponse(&items[i])
	}
	return out, nil
}

// SetReorderThresholds updates the reorder settings of a key
func (s *Service) SetReorderThresholds(ctx context.Context, req SetThresholdsRequest) (*StockItemResponse, error) {
	key := req.Key()
	if !key.Kind.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown tire kind "+string(key.Kind))
	}
	thresholds := stock.Thresholds{ReorderLevel: req.ReorderLevel, ReorderQuantity: req.ReorderQuantity}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	var item *stock.CatalogItem
	err := s.scope.Execute(ctx, func(ctx context.Context, repos txscope.Repositories) error {
		var err error
		item, err = repos.Catalog().SetThresholds(ctx, key, thresholds)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// ReconcileStock runs Reconcile on behalf of an actor holding stock:reconcile
func (s *Service) ReconcileStock(ctx context.Context, actorID uuid.UUID, key *asset.StockKey) (*ReconcileReport, error) {
	actor, err := s.actors.Resolve(ctx, actorID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return nil, shared.NewAuthorizationError(actorID.String(), string(identity.CapReconcileStock), "unknown actor")
		}
		return nil, err
	}
	if err := actor.Require(identity.CapReconcileStock); err != nil {
		return nil, err
	}
	return s.Reconcile(ctx, key)
}

// Reconcile recomputes counters from tire rows, for every key or only key, and
// overwrites each counter that drifted. Each key is corrected in its own transaction
// holding the counter row lock, so deltas committed concurrently are not lost.
func (s *Service) Reconcile(ctx context.Context, key *asset.StockKey) (_ *ReconcileReport, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "Reconcile")
	defer func() { telemetry.EndSpan(span, err) }()

	if s.lock != nil {
		release, err := s.lock.Obtain(ctx, ReconcileLockName, s.lockTTL)
		if err != nil {
			if errors.Is(err, ErrLockNotObtained) {
				return nil, shared.NewStateConflictError(reconcileEntity, ReconcileLockName, "RUNNING", "RECONCILE",
					"a reconcile run is already in progress")
			}
			return nil, err
		}
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				s.logger.Warn("failed to release reconcile lock", zap.Error(rerr))
			}
		}()
	}

	report := &ReconcileReport{StartedAt: s.clock.Now(), Drifts: make([]DriftResponse, 0)}
	keys, err := s.keysToCheck(ctx, key)
	if err != nil {
		return nil, err
	}

	var events txscope.Events
	for _, k := range keys {
		var drift *stock.Drift
		err := s.scope.Execute(ctx, func(ctx context.Context, repos txscope.Repositories) error {
			drift = nil
			events.Reset()
			d, item, err := reconcileKey(ctx, repos, k)
			if err != nil {
				return err
			}
			if d != nil {
				drift = d
				events.Add(stock.NewStockDriftCorrectedEvent(item, *d))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		report.KeysChecked++
		if drift == nil {
			continue
		}
		report.Drifts = append(report.Drifts, toDriftResponse(*drift))
		s.logger.Warn("stock drift corrected",
			zap.String("key", drift.Key.String()),
			zap.Int64("cached", drift.Cached),
			zap.Int64("actual", drift.Actual))
		if err := events.Publish(ctx, s.eventPublisher); err != nil {
			s.logger.Error("failed to publish drift event", zap.Error(err))
		}
	}
	report.FinishedAt = s.clock.Now()

	if s.metrics != nil {
		s.metrics.RecordReconcile(ctx, len(report.Drifts))
	}
	s.logger.Info("stock reconcile finished",
		zap.Int("keys_checked", report.KeysChecked),
		zap.Int("drifts", len(report.Drifts)))
	return report, nil
}

func reconcileKey(ctx context.Context, repos txscope.Repositories, key asset.StockKey) (*stock.Drift, *stock.CatalogItem, error) {
	item, err := repos.Catalog().FindByKeyForUpdate(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	counts, err := repos.Tires().CountInStockByKey(ctx, &key)
	if err != nil {
		return nil, nil, err
	}
	var cached int64
	if item != nil {
		cached = item.CurrentStock
	}
	actual := counts[key]
	if actual == cached && item != nil {
		return nil, item, nil
	}
	if actual == cached {
		// no row and no tires: nothing to write
		return nil, nil, nil
	}
	if err := repos.Catalog().SetCount(ctx, key, actual); err != nil {
		return nil, nil, err
	}
	item, err = repos.Catalog().FindByKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return &stock.Drift{Key: key, Cached: cached, Actual: actual}, item, nil
}

// keysToCheck is the union of keys with a counter row and keys with tires in stock
func (s *Service) keysToCheck(ctx context.Context, only *asset.StockKey) ([]asset.StockKey, error) {
	if only != nil {
		return []asset.StockKey{*only}, nil
	}
	seen := make(map[asset.StockKey]struct{})
	items, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		seen[it.Key] = struct{}{}
	}
	counts, err := s.tires.CountInStockByKey(ctx, nil)
	if err != nil {
		return nil, err
	}
	for k := range counts {
		seen[k] = struct{}{}
	}
	keys := make([]asset.StockKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}
