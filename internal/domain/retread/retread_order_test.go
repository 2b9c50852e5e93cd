package retread

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

var testClock = shared.FixedClock{At: time.Date(2026, 10, 5, 14, 0, 0, 0, time.UTC)}

func sentOrder(t *testing.T, tires int) *Order {
	t.Helper()
	o, err := NewOrder(testClock, "RTO2026100001", uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	for i := 0; i < tires; i++ {
		_, err := o.AddTire(uuid.New(), decimal.NewFromInt(150), testClock.Now())
		require.NoError(t, err)
	}
	require.NoError(t, o.Send(uuid.New(), testClock.Now()))
	return o
}

func TestOrder_AddTire(t *testing.T) {
	o, err := NewOrder(testClock, "RTO2026100001", uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	tireID := uuid.New()

	_, err = o.AddTire(tireID, decimal.NewFromInt(100), testClock.Now())
	require.NoError(t, err)
	_, err = o.AddTire(tireID, decimal.NewFromInt(100), testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindValidation))
	_, err = o.AddTire(uuid.New(), decimal.NewFromInt(-1), testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindValidation))
	assert.Len(t, o.Items, 1)
	assert.Equal(t, OutcomePending, o.Items[0].Outcome)
}

func TestOrder_Send(t *testing.T) {
	o, err := NewOrder(testClock, "RTO2026100001", uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	err = o.Send(uuid.New(), testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	o = sentOrder(t, 2)
	assert.Equal(t, StatusSent, o.Status)
	assert.NotNil(t, o.SentAt)

	err = o.Send(uuid.New(), testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
	err = o.Cancel(testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
}

func TestOrder_RecordOutcome(t *testing.T) {
	o := sentOrder(t, 2)
	receiptID := uuid.New()
	first, second := o.Items[0], o.Items[1]

	item, err := o.RecordOutcome(first.ID, OutcomeAccepted, decimal.RequireFromString("180.456"), "", receiptID, testClock.Now())
	require.NoError(t, err)
	assert.Equal(t, "180.46", item.RetreadCost.StringFixed(2))
	o.DeriveReceiptStatus()
	assert.Equal(t, StatusPartiallyReceived, o.Status)
	err = o.Close(testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict), "a tire is still at the retreader")

	_, err = o.RecordOutcome(first.ID, OutcomeRejected, decimal.Zero, "casing damage", receiptID, testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))

	_, err = o.RecordOutcome(second.ID, OutcomePending, decimal.Zero, "", receiptID, testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = o.RecordOutcome(second.ID, OutcomeRejected, decimal.Zero, " casing damage ", receiptID, testClock.Now())
	require.NoError(t, err)
	assert.Equal(t, "casing damage", second.RejectionReason)
	o.DeriveReceiptStatus()
	assert.Equal(t, StatusFullyReceived, o.Status)
	assert.Equal(t, 0, o.PendingCount())
	assert.False(t, o.Status.IsOpen())

	require.NoError(t, o.Close(testClock.Now()))
	assert.Equal(t, StatusClosed, o.Status)
}

func TestOrder_RecordOutcomeBeforeSend(t *testing.T) {
	o, err := NewOrder(testClock, "RTO2026100001", uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	item, err := o.AddTire(uuid.New(), decimal.Zero, testClock.Now())
	require.NoError(t, err)
	_, err = o.RecordOutcome(item.ID, OutcomeAccepted, decimal.Zero, "", uuid.New(), testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
}

func TestReceipt_Counts(t *testing.T) {
	o := sentOrder(t, 3)
	r, err := NewReceipt("RRN2026100001", o, uuid.New(), "", testClock.Now())
	require.NoError(t, err)

	a, err := o.RecordOutcome(o.Items[0].ID, OutcomeAccepted, decimal.NewFromInt(200), "", r.ID, testClock.Now())
	require.NoError(t, err)
	newID := uuid.New()
	r.Add(a, &newID, "RT-1")

	b, err := o.RecordOutcome(o.Items[1].ID, OutcomeAccepted, decimal.NewFromInt(150), "", r.ID, testClock.Now())
	require.NoError(t, err)
	newID2 := uuid.New()
	r.Add(b, &newID2, "RT-2")

	c, err := o.RecordOutcome(o.Items[2].ID, OutcomeRejected, decimal.Zero, "", r.ID, testClock.Now())
	require.NoError(t, err)
	r.Add(c, nil, "")

	assert.Equal(t, 2, r.AcceptedCount)
	assert.Equal(t, 1, r.RejectedCount)
	assert.True(t, r.TotalCost.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, o.SupplierID, r.SupplierID)
}

func TestOrder_Cancel(t *testing.T) {
	o, err := NewOrder(testClock, "RTO2026100001", uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	require.NoError(t, o.Cancel(testClock.Now()))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.False(t, o.Status.IsOpen())
	assert.Len(t, o.GetDomainEvents(), 2)
}
