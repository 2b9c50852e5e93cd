package asset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

var testClock = shared.FixedClock{At: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)}

func newStoredTire(t *testing.T) *Tire {
	t.Helper()
	tire, err := NewPurchasedTire(testClock, "SN-0001", Spec{Size: "295/80R22.5", Brand: "Michelin", Model: "X Multi"},
		decimal.NewFromInt(420), uuid.New(), uuid.New())
	require.NoError(t, err)
	_, _, err = tire.Enter(TriggerReceived)
	require.NoError(t, err)
	return tire
}

func TestNextStatus_Table(t *testing.T) {
	allowed := []struct {
		from    TireStatus
		trigger Trigger
		to      TireStatus
	}{
		{"", TriggerReceived, StatusInStore},
		{StatusAtRetreadSupplier, TriggerRetreadAccepted, StatusInStore},
		{StatusInStore, TriggerInstalled, StatusOnVehicle},
		{StatusUsedStore, TriggerInstalled, StatusOnVehicle},
		{StatusOnVehicle, TriggerRemoved, StatusUsedStore},
		{StatusUsedStore, TriggerMarkedForRetread, StatusAwaitingRetread},
		{StatusAwaitingRetread, TriggerRetreadUnmarked, StatusUsedStore},
		{StatusAwaitingRetread, TriggerSentForRetread, StatusAtRetreadSupplier},
		{StatusAtRetreadSupplier, TriggerRetreadRejected, StatusUsedStore},
		{StatusInStore, TriggerDisposed, StatusDisposed},
		{StatusUsedStore, TriggerScrapped, StatusScrap},
		{StatusAwaitingRetread, TriggerDisposed, StatusDisposed},
		{StatusDisposed, TriggerDisposalReversal, StatusUsedStore},
	}
	for _, tt := range allowed {
		t.Run(string(tt.from)+"_"+string(tt.trigger), func(t *testing.T) {
			to, ok := NextStatus(tt.from, tt.trigger)
			assert.True(t, ok)
			assert.Equal(t, tt.to, to)
		})
	}

	rejected := []struct {
		from    TireStatus
		trigger Trigger
	}{
		{StatusOnVehicle, TriggerDisposed},
		{StatusOnVehicle, TriggerInstalled},
		{StatusAtRetreadSupplier, TriggerDisposed},
		{StatusScrap, TriggerDisposalReversal},
		{StatusDisposed, TriggerInstalled},
		{StatusInStore, TriggerMarkedForRetread},
		{StatusInStore, TriggerRemoved},
		{StatusUsedStore, TriggerSentForRetread},
	}
	for _, tt := range rejected {
		t.Run("reject_"+string(tt.from)+"_"+string(tt.trigger), func(t *testing.T) {
			_, ok := NextStatus(tt.from, tt.trigger)
			assert.False(t, ok)
		})
	}
}

func TestTerminalStatesOnlyAllowReversal(t *testing.T) {
	assert.Empty(t, AllowedTriggers(StatusScrap))
	assert.Equal(t, []Trigger{TriggerDisposalReversal}, AllowedTriggers(StatusDisposed))
}

func TestStockDelta(t *testing.T) {
	assert.Equal(t, int64(1), StockDelta("", StatusInStore))
	assert.Equal(t, int64(-1), StockDelta(StatusInStore, StatusOnVehicle))
	assert.Equal(t, int64(1), StockDelta(StatusOnVehicle, StatusUsedStore))
	assert.Equal(t, int64(-1), StockDelta(StatusUsedStore, StatusAwaitingRetread))
	assert.Equal(t, int64(0), StockDelta(StatusAwaitingRetread, StatusAtRetreadSupplier))
	assert.Equal(t, int64(1), StockDelta(StatusAtRetreadSupplier, StatusUsedStore))
	assert.Equal(t, int64(1), StockDelta(StatusAtRetreadSupplier, StatusInStore))
	assert.Equal(t, int64(-1), StockDelta(StatusUsedStore, StatusDisposed))
	assert.Equal(t, int64(1), StockDelta(StatusDisposed, StatusUsedStore))
}

func TestNewPurchasedTire_Validation(t *testing.T) {
	spec := Spec{Size: "11R22.5", Brand: "Bridgestone", Model: "R249"}

	_, err := NewPurchasedTire(testClock, " ", spec, decimal.NewFromInt(1), uuid.New(), uuid.New())
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = NewPurchasedTire(testClock, "SN", Spec{Size: "11R22.5"}, decimal.NewFromInt(1), uuid.New(), uuid.New())
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = NewPurchasedTire(testClock, "SN", spec, decimal.NewFromInt(-1), uuid.New(), uuid.New())
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	lineID := uuid.New()
	tire, err := NewPurchasedTire(testClock, "SN", spec, decimal.RequireFromString("199.999"), uuid.New(), lineID)
	require.NoError(t, err)
	assert.Equal(t, KindNew, tire.Kind)
	assert.Equal(t, lineID, *tire.Lineage.PurchaseLineID)
	assert.Nil(t, tire.Lineage.RetreadLineID)
	assert.Equal(t, "200", tire.CostBasis.String())
	assert.Equal(t, TireStatus(""), tire.Status)
}

func TestTire_ApplyAndReject(t *testing.T) {
	tire := newStoredTire(t)
	at := testClock.At.Add(time.Hour)

	from, to, err := tire.Apply(TriggerInstalled, at)
	require.NoError(t, err)
	assert.Equal(t, StatusInStore, from)
	assert.Equal(t, StatusOnVehicle, to)
	assert.Equal(t, at, tire.UpdatedAt)

	_, _, err = tire.Dispose(DisposalScrap, "sidewall cut", uuid.New(), at)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, shared.KindStateConflict, de.Kind)
	assert.Equal(t, shared.CodeInvalidTransition, de.Code)
	assert.Equal(t, tire.ID.String(), de.EntityID)
	assert.Equal(t, "ON_VEHICLE", de.CurrentState)
	assert.Equal(t, "SCRAPPED", de.AttemptedState)
	assert.Equal(t, StatusOnVehicle, tire.Status)
}

func TestTire_EnterOnlyOnce(t *testing.T) {
	tire := newStoredTire(t)
	_, _, err := tire.Enter(TriggerReceived)
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))

	_, _, err = tire.Apply(TriggerReceived, testClock.At)
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
}

func TestTire_DisposeAndReverse(t *testing.T) {
	tire := newStoredTire(t)
	authorizer := uuid.New()

	_, to, err := tire.Dispose(DisposalSale, "sold to recycler", authorizer, testClock.At)
	require.NoError(t, err)
	assert.Equal(t, StatusDisposed, to)
	require.NotNil(t, tire.Disposal)
	assert.Equal(t, authorizer, tire.Disposal.AuthorizedBy)

	_, _, err = tire.Dispose(DisposalSale, "again", authorizer, testClock.At)
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))

	from, to, err := tire.ReverseDisposal("disposed in error", testClock.At)
	require.NoError(t, err)
	assert.Equal(t, StatusDisposed, from)
	assert.Equal(t, StatusUsedStore, to)
	assert.Nil(t, tire.Disposal)
}

func TestTire_ScrapIsIrreversible(t *testing.T) {
	tire := newStoredTire(t)
	_, to, err := tire.Dispose(DisposalScrap, "bead damage", uuid.New(), testClock.At)
	require.NoError(t, err)
	assert.Equal(t, StatusScrap, to)

	_, _, err = tire.ReverseDisposal("oops", testClock.At)
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
}

func TestTire_MountUnmount(t *testing.T) {
	tire := newStoredTire(t)
	vehicle := uuid.New()

	a, err := tire.Mount(vehicle, "L1", 120000, testClock.At)
	require.NoError(t, err)
	assert.Equal(t, vehicle, a.VehicleID)

	_, err = tire.Unmount(119999)
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	got, err := tire.Unmount(150000)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Nil(t, tire.Assignment)
}

func TestTire_SupersededRejectsEverything(t *testing.T) {
	tire := newStoredTire(t)
	tire.Status = StatusAtRetreadSupplier

	require.NoError(t, tire.MarkSuperseded(uuid.New(), testClock.At))
	assert.True(t, tire.IsSuperseded())

	_, _, err := tire.Apply(TriggerRetreadRejected, testClock.At)
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
	assert.Equal(t, StatusAtRetreadSupplier, tire.Status)

	assert.Error(t, tire.MarkSuperseded(uuid.New(), testClock.At))
}

func TestNewRetreadedTire(t *testing.T) {
	original := newStoredTire(t)
	original.RetreadCount = 1
	lineID := uuid.New()

	_, err := NewRetreadedTire(testClock, original.SerialNumber, original, decimal.NewFromInt(150), uuid.New(), lineID)
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	rt, err := NewRetreadedTire(testClock, "SN-0001-R2", original, decimal.NewFromInt(150), uuid.New(), lineID)
	require.NoError(t, err)
	assert.Equal(t, KindRetreaded, rt.Kind)
	assert.Equal(t, 2, rt.RetreadCount)
	assert.Equal(t, original.Spec, rt.Spec)
	assert.Equal(t, lineID, *rt.Lineage.RetreadLineID)

	from, to, err := rt.Enter(TriggerRetreadAccepted)
	require.NoError(t, err)
	assert.Equal(t, StatusAtRetreadSupplier, from)
	assert.Equal(t, StatusInStore, to)
	assert.Equal(t, StockKey{Size: "295/80R22.5", Brand: "Michelin", Model: "X Multi", Kind: KindRetreaded}, rt.StockKey())
}

func TestNewMovement_Chain(t *testing.T) {
	tire, err := NewPurchasedTire(testClock, "SN-9", Spec{Size: "a", Brand: "b", Model: "c"}, decimal.Zero, uuid.New(), uuid.New())
	require.NoError(t, err)
	actor := uuid.New()

	from, to, err := tire.Enter(TriggerReceived)
	require.NoError(t, err)
	first, err := NewMovement(tire, nil, from, to, TriggerReceived, testClock.At, MovementInput{ActorID: actor})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, TireStatus(""), first.FromStatus)

	from, to, err = tire.Apply(TriggerInstalled, testClock.At)
	require.NoError(t, err)
	second, err := NewMovement(tire, first, from, to, TriggerInstalled, testClock.At, MovementInput{
		ActorID:   actor,
		Reference: &Reference{Kind: RefVehicleAssignment, ID: uuid.New()},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Sequence)
	assert.Equal(t, tire.Status, second.ToStatus)

	// a stale previous movement breaks the chain
	_, err = NewMovement(tire, first, StatusOnVehicle, StatusOnVehicle, TriggerRemoved, testClock.At, MovementInput{ActorID: actor})
	assert.Error(t, err)

	_, err = NewMovement(tire, second, from, to, TriggerInstalled, testClock.At, MovementInput{})
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}

type pagedMovements struct {
	movements []Movement
	calls     int
}

func (p *pagedMovements) Append(context.Context, *Movement) error { return nil }
func (p *pagedMovements) Last(context.Context, uuid.UUID) (*Movement, error) {
	return nil, nil
}
func (p *pagedMovements) CountByTire(context.Context, uuid.UUID) (int64, error) {
	return int64(len(p.movements)), nil
}
func (p *pagedMovements) ListAfter(_ context.Context, _ uuid.UUID, afterSeq int64, limit int) ([]Movement, error) {
	p.calls++
	out := make([]Movement, 0, limit)
	for _, m := range p.movements {
		if m.Sequence > afterSeq && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestHistory_LazyRestartableFinite(t *testing.T) {
	repo := &pagedMovements{}
	for i := int64(1); i <= 5; i++ {
		repo.movements = append(repo.movements, Movement{ID: uuid.New(), Sequence: i})
	}
	seq := History(context.Background(), repo, uuid.New(), 0, 2)
	assert.Equal(t, 0, repo.calls, "nothing is read until ranged")

	var got []int64
	for m, err := range seq {
		require.NoError(t, err)
		got = append(got, m.Sequence)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
	assert.Equal(t, 3, repo.calls)

	// restart
	got = got[:0]
	for m, err := range seq {
		require.NoError(t, err)
		got = append(got, m.Sequence)
		if m.Sequence == 2 {
			break
		}
	}
	assert.Equal(t, []int64{1, 2}, got)

	// resume after a cursor
	got = got[:0]
	for m, err := range History(context.Background(), repo, uuid.New(), 3, 10) {
		require.NoError(t, err)
		got = append(got, m.Sequence)
	}
	assert.Equal(t, []int64{4, 5}, got)
}
