package purchasing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

var (
	testClock = shared.FixedClock{At: time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC)}
	testSpec  = asset.Spec{Size: "11R22.5", Brand: "Bridgestone", Model: "R268"}
)

func newOrder(t *testing.T, quantities ...int) *PurchaseOrder {
	t.Helper()
	po, err := NewPurchaseOrder(testClock, "PO2026100001", uuid.New(), uuid.New())
	require.NoError(t, err)
	for _, q := range quantities {
		_, err := po.AddItem(testSpec, q, decimal.NewFromInt(100), testClock.Now())
		require.NoError(t, err)
	}
	return po
}

func approvedOrder(t *testing.T, quantities ...int) *PurchaseOrder {
	t.Helper()
	po := newOrder(t, quantities...)
	approver := uuid.New()
	_, err := po.ChangeStatus(StatusPendingApproval, nil, testClock.Now())
	require.NoError(t, err)
	_, err = po.ChangeStatus(StatusApproved, &approver, testClock.Now())
	require.NoError(t, err)
	return po
}

func TestNewPurchaseOrder(t *testing.T) {
	po := newOrder(t, 10, 5)
	assert.Equal(t, StatusDraft, po.Status)
	assert.Len(t, po.Items, 2)
	assert.True(t, po.TotalAmount.Equal(decimal.NewFromInt(1500)))
	assert.Len(t, po.GetDomainEvents(), 1)

	_, err := NewPurchaseOrder(testClock, "", uuid.New(), uuid.New())
	assert.True(t, shared.IsKind(err, shared.KindValidation))
	_, err = NewPurchaseOrder(testClock, "PO2026100002", uuid.Nil, uuid.New())
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestPurchaseOrderItem_Receive(t *testing.T) {
	item, err := NewPurchaseOrderItem(uuid.New(), testSpec, 100, decimal.NewFromInt(50), testClock.Now())
	require.NoError(t, err)

	t.Run("zero quantity is a validation error", func(t *testing.T) {
		err := item.Receive(0, testClock.Now())
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		assert.Equal(t, 0, item.ReceivedQuantity)
	})

	t.Run("partial receipts accumulate", func(t *testing.T) {
		require.NoError(t, item.Receive(40, testClock.Now()))
		require.NoError(t, item.Receive(60, testClock.Now()))
		assert.Equal(t, 100, item.ReceivedQuantity)
		assert.Equal(t, 0, item.RemainingQuantity())
	})

	t.Run("over receipt carries the remaining quantity", func(t *testing.T) {
		err := item.Receive(1, testClock.Now())
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, shared.CodeOverReceipt, de.Code)
		assert.Equal(t, "remaining=0", de.CurrentState)
		assert.Equal(t, 100, item.ReceivedQuantity)
	})
}

func TestPurchaseOrderItem_Update(t *testing.T) {
	item, err := NewPurchaseOrderItem(uuid.New(), testSpec, 10, decimal.NewFromInt(50), testClock.Now())
	require.NoError(t, err)
	require.NoError(t, item.Receive(4, testClock.Now()))

	err = item.Update(3, decimal.NewFromInt(50), testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))

	require.NoError(t, item.Update(4, decimal.RequireFromString("49.999"), testClock.Now()))
	assert.Equal(t, 4, item.Quantity)
	assert.Equal(t, "50", item.UnitPrice.String())
}

func TestPurchaseOrder_ReceiveDerivesStatus(t *testing.T) {
	po := approvedOrder(t, 100)
	line := po.Items[0]

	_, err := po.ReceiveItem(line.ID, 40, testClock.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyReceived, po.Status)

	_, err = po.ReceiveItem(line.ID, 60, testClock.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusFullyReceived, po.Status)
}

func TestPurchaseOrder_ReceiveBeyondFullyReceivedLine(t *testing.T) {
	po := approvedOrder(t, 10)
	line := po.Items[0]
	_, err := po.ReceiveItem(line.ID, 10, testClock.Now())
	require.NoError(t, err)
	require.Equal(t, StatusFullyReceived, po.Status)

	_, err = po.ReceiveItem(line.ID, 1, testClock.Now())
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, shared.CodeOverReceipt, de.Code)
	assert.Equal(t, shared.KindValidation, de.Kind)
	assert.Equal(t, "remaining=0", de.CurrentState)
	assert.Equal(t, 10, line.ReceivedQuantity)
	assert.Equal(t, StatusFullyReceived, po.Status)
}

func TestPurchaseOrder_ReceiveRejectedBeforeApproval(t *testing.T) {
	po := newOrder(t, 10)
	_, err := po.ReceiveItem(po.Items[0].ID, 1, testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
	assert.Equal(t, 0, po.Items[0].ReceivedQuantity)
}

func TestPurchaseOrder_ChangeStatus(t *testing.T) {
	t.Run("manual matrix", func(t *testing.T) {
		cases := []struct {
			from    PurchaseOrderStatus
			to      PurchaseOrderStatus
			allowed bool
		}{
			{StatusDraft, StatusPendingApproval, true},
			{StatusDraft, StatusApproved, false},
			{StatusPendingApproval, StatusDraft, true},
			{StatusApproved, StatusOrdered, true},
			{StatusOrdered, StatusApproved, false},
			{StatusPartiallyReceived, StatusClosed, true},
			{StatusClosed, StatusDraft, false},
			{StatusCancelled, StatusDraft, false},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		po := newOrder(t, 1)
		_, err := po.ChangeStatus("SHIPPED", nil, testClock.Now())
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, shared.CodeInvalidStatus, de.Code)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		po := newOrder(t, 1)
		changed, err := po.ChangeStatus(StatusDraft, nil, testClock.Now())
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("derived statuses are not manual targets", func(t *testing.T) {
		po := approvedOrder(t, 1)
		_, err := po.ChangeStatus(StatusFullyReceived, nil, testClock.Now())
		assert.True(t, shared.IsKind(err, shared.KindStateConflict))
		assert.Equal(t, StatusApproved, po.Status)
	})

	t.Run("empty order cannot be submitted", func(t *testing.T) {
		po := newOrder(t)
		_, err := po.ChangeStatus(StatusPendingApproval, nil, testClock.Now())
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("approval records approver and back to draft clears it", func(t *testing.T) {
		po := approvedOrder(t, 1)
		require.NotNil(t, po.ApprovedBy)
		require.NotNil(t, po.ApprovedAt)

		po2 := newOrder(t, 1)
		_, err := po2.ChangeStatus(StatusPendingApproval, nil, testClock.Now())
		require.NoError(t, err)
		changed, err := po2.ChangeStatus(StatusDraft, nil, testClock.Now())
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Nil(t, po2.ApprovedBy)
	})

	t.Run("cancel with receipts is rejected", func(t *testing.T) {
		po := approvedOrder(t, 10)
		_, err := po.ChangeStatus(StatusOrdered, nil, testClock.Now())
		require.NoError(t, err)
		po.Items[0].ReceivedQuantity = 1
		_, err = po.ChangeStatus(StatusCancelled, nil, testClock.Now())
		assert.True(t, shared.IsKind(err, shared.KindStateConflict))
	})
}

func TestPurchaseOrder_RemoveItem(t *testing.T) {
	po := newOrder(t, 5, 5)
	first, second := po.Items[0], po.Items[1]

	err := po.RemoveItem(first.ID, 2, testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))

	second.ReceivedQuantity = 1
	err = po.RemoveItem(second.ID, 0, testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))

	require.NoError(t, po.RemoveItem(first.ID, 0, testClock.Now()))
	assert.Len(t, po.Items, 1)
	assert.True(t, po.TotalAmount.Equal(decimal.NewFromInt(500)))
}

func TestPurchaseOrder_LinesFrozenAfterApproval(t *testing.T) {
	po := approvedOrder(t, 5)
	_, err := po.AddItem(testSpec, 1, decimal.NewFromInt(1), testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
	_, err = po.UpdateItem(po.Items[0].ID, 6, decimal.NewFromInt(1), testClock.Now())
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))
}

func TestPurchaseOrder_EnsureDeletable(t *testing.T) {
	assert.NoError(t, newOrder(t, 1).EnsureDeletable())
	assert.Error(t, approvedOrder(t, 1).EnsureDeletable())
}

func TestGoodsReceipt_Serials(t *testing.T) {
	po := approvedOrder(t, 3, 2)
	grn, err := NewGoodsReceipt("GRN2026100007", po, " B-1 ", uuid.New(), testClock.Now())
	require.NoError(t, err)
	assert.Equal(t, "B-1", grn.BatchRef)

	item, err := grn.AddItem(po.Items[0], 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"GRN2026100007-001", "GRN2026100007-002", "GRN2026100007-003"}, item.SerialNumbers)

	_, err = grn.AddItem(po.Items[1], 2, []string{"X1"})
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = grn.AddItem(po.Items[1], 2, []string{"X1", "x1"})
	assert.True(t, shared.IsKind(err, shared.KindValidation))

	_, err = grn.AddItem(po.Items[1], 2, []string{"X1", "X2"})
	require.NoError(t, err)
	assert.Equal(t, 5, grn.TotalQuantity())
	assert.True(t, grn.TotalCost.Equal(decimal.NewFromInt(500)))

	_, err = grn.AddItem(po.Items[1], 1, nil)
	assert.True(t, shared.IsKind(err, shared.KindValidation))
}
