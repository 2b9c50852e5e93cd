package asset

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/application/txscope"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/domain/stock"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
)

// Change moves a locked tire through the transition table and returns the trigger it
// applied. It may fill in the movement input (reference, odometer) from what it did.
type Change func(t *asset.Tire, at time.Time, in *asset.MovementInput) (asset.Trigger, error)

// Apply is the Change for a plain table transition
func Apply(trigger asset.Trigger) Change {
	return func(t *asset.Tire, at time.Time, _ *asset.MovementInput) (asset.Trigger, error) {
		_, _, err := t.Apply(trigger, at)
		return trigger, err
	}
}

// Result is what one recorded transition wrote
type Result struct {
	Tire     *asset.Tire
	Movement *asset.Movement
}

// Recorder is the single writer of tire status. Every transition goes through it inside
// the caller's transaction: lock the tire, validate, append the movement, save the tire
// with a version check, then adjust the stock counter.
type Recorder struct {
	clock   shared.Clock
	metrics *telemetry.LifecycleMetrics
}

// NewRecorder creates a Recorder
func NewRecorder(clock shared.Clock) *Recorder {
	return &Recorder{clock: clock}
}

// SetMetrics sets the lifecycle metrics collector
func (r *Recorder) SetMetrics(m *telemetry.LifecycleMetrics) {
	r.metrics = m
}

// Clock returns the recorder's clock so callers stamp documents with the same time source
func (r *Recorder) Clock() shared.Clock {
	return r.clock
}

// Batch accumulates the stock deltas and events of several transitions in one transaction.
// Flush must be called before the transaction commits.
type Batch struct {
	recorder *Recorder
	repos    txscope.Repositories
	events   *txscope.Events
	deltas   map[asset.StockKey]*stock.Delta
	order    []asset.StockKey
}

// Begin starts a batch bound to the transaction's repositories
func (r *Recorder) Begin(repos txscope.Repositories, events *txscope.Events) *Batch {
	return &Batch{
		recorder: r,
		repos:    repos,
		events:   events,
		deltas:   make(map[asset.StockKey]*stock.Delta),
	}
}

// Transition locks the tire by id and records change on it
func (b *Batch) Transition(ctx context.Context, tireID uuid.UUID, in asset.MovementInput, change Change) (*Result, error) {
	tire, err := b.repos.Tires().FindByIDForUpdate(ctx, tireID)
	if err != nil {
		return nil, err
	}
	return b.TransitionLocked(ctx, tire, in, change)
}

// TransitionLocked records change on a tire the caller already holds locked
func (b *Batch) TransitionLocked(ctx context.Context, tire *asset.Tire, in asset.MovementInput, change Change) (*Result, error) {
	at := b.recorder.clock.Now()
	from := tire.Status
	trigger, err := change(tire, at, &in)
	if err != nil {
		return nil, err
	}

	previous, err := b.repos.Movements().Last(ctx, tire.ID)
	if err != nil {
		return nil, err
	}
	m, err := asset.NewMovement(tire, previous, from, tire.Status, trigger, at, in)
	if err != nil {
		return nil, err
	}
	if err := b.repos.Movements().Append(ctx, m); err != nil {
		return nil, err
	}
	if err := b.repos.Tires().Update(ctx, tire); err != nil {
		return nil, err
	}
	b.record(ctx, tire, m, nil)
	return &Result{Tire: tire, Movement: m}, nil
}

// Create inserts a new tire with its creation movement. unitCost, when set, feeds the
// cost fields of the stock counter.
func (b *Batch) Create(ctx context.Context, tire *asset.Tire, trigger asset.Trigger, in asset.MovementInput, unitCost *decimal.Decimal) (*Result, error) {
	at := b.recorder.clock.Now()
	from, to, err := tire.Enter(trigger)
	if err != nil {
		return nil, err
	}
	m, err := asset.NewMovement(tire, nil, from, to, trigger, at, in)
	if err != nil {
		return nil, err
	}
	if err := b.repos.Tires().Create(ctx, tire); err != nil {
		return nil, err
	}
	if err := b.repos.Movements().Append(ctx, m); err != nil {
		return nil, err
	}
	b.record(ctx, tire, m, unitCost)
	return &Result{Tire: tire, Movement: m}, nil
}

func (b *Batch) record(ctx context.Context, tire *asset.Tire, m *asset.Movement, unitCost *decimal.Decimal) {
	b.events.Add(asset.NewTireTransitionedEvent(tire, m))
	if tire.Status.IsTerminal() {
		b.events.Add(asset.NewTireDisposedEvent(tire))
	}
	if b.recorder.metrics != nil {
		b.recorder.metrics.RecordTransition(ctx, string(m.Trigger), string(m.FromStatus), string(m.ToStatus))
	}

	qty := asset.StockDelta(m.FromStatus, m.ToStatus)
	if qty == 0 {
		return
	}
	key := tire.StockKey()
	d, ok := b.deltas[key]
	if !ok {
		d = &stock.Delta{Key: key}
		b.deltas[key] = d
		b.order = append(b.order, key)
	}
	d.Quantity += qty
	if unitCost != nil && qty > 0 {
		cost := *unitCost
		d.UnitCost = &cost
	}
}

// Flush applies the accumulated stock deltas, one relative update per key, and queues
// a low stock event for every key left at or below its reorder level.
func (b *Batch) Flush(ctx context.Context) ([]stock.CatalogItem, error) {
	items := make([]stock.CatalogItem, 0, len(b.order))
	for _, key := range b.order {
		d := b.deltas[key]
		if d.Quantity == 0 {
			continue
		}
		item, err := b.repos.Catalog().ApplyDelta(ctx, *d)
		if err != nil {
			return nil, err
		}
		if item.IsBelowReorderLevel() {
			b.events.Add(stock.NewStockBelowReorderLevelEvent(item))
		}
		items = append(items, *item)
	}
	b.deltas = make(map[asset.StockKey]*stock.Delta)
	b.order = nil
	return items, nil
}
