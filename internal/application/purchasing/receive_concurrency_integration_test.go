//go:build integration

package purchasing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/application/apptest"
	apppurchasing "github.com/tyrefleet/backend/internal/application/purchasing"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/pgtest"
)

type receiveResult struct {
	quantity int
	err      error
}

func receiveConcurrently(t *testing.T, env *apptest.Env, lineID uuid.UUID, quantities []int) []receiveResult {
	t.Helper()
	svc := env.PurchaseOrders()
	storeman := env.Actor(t, "storeman")
	results := make([]receiveResult, len(quantities))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, q := range quantities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.ReceiveLine(context.Background(), lineID, storeman, apppurchasing.ReceiveLineRequest{Quantity: q})
			results[i] = receiveResult{quantity: q, err: err}
		}()
	}
	close(start)
	wg.Wait()
	return results
}

func assertRejectedSafely(t *testing.T, err error) {
	t.Helper()
	de := new(shared.DomainError)
	require.ErrorAs(t, err, &de)
	assert.Contains(t, []string{shared.CodeOverReceipt, shared.CodeConcurrentModification}, de.Code, "unexpected rejection: %v", err)
}

func TestReceiveLine_ConcurrentCallsNeverOverReceive(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	env := apptest.NewWithDB(t, pgtest.Open(t), persistence.WithRetry(3, 20*time.Millisecond))
	ctx := context.Background()
	vendor := env.Supplier(t, "BRIDGE", partner.SupplierTypeVendor)
	key := apptest.Key(asset.KindNew)

	t.Run("two receipts of five against eight", func(t *testing.T) {
		_, lineID := env.ApprovedOrder(t, vendor.ID, 8, "410.00")

		results := receiveConcurrently(t, env, lineID, []int{5, 5})

		received := 0
		for _, r := range results {
			if r.err == nil {
				received += r.quantity
				continue
			}
			assertRejectedSafely(t, r.err)
		}
		assert.Equal(t, 5, received, "exactly one receipt goes through")

		var line models.PurchaseOrderItemModel
		require.NoError(t, env.DB.First(&line, "id = ?", lineID).Error)
		assert.Equal(t, 5, line.ReceivedQuantity)
		var tires int64
		require.NoError(t, env.DB.Model(&models.TireModel{}).Where("source_purchase_line_id = ?", lineID).Count(&tires).Error)
		assert.Equal(t, int64(5), tires)
		assert.Equal(t, int64(5), env.StockCount(t, key))
	})

	t.Run("many single receipts", func(t *testing.T) {
		before := env.StockCount(t, key)
		orderID, lineID := env.ApprovedOrder(t, vendor.ID, 8, "410.00")

		quantities := make([]int, 12)
		for i := range quantities {
			quantities[i] = 1
		}
		results := receiveConcurrently(t, env, lineID, quantities)

		succeeded := 0
		for _, r := range results {
			if r.err == nil {
				succeeded++
				continue
			}
			assertRejectedSafely(t, r.err)
		}
		assert.LessOrEqual(t, succeeded, 8)

		order, err := env.PurchaseOrders().Get(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, order.Items, 1)
		assert.Equal(t, succeeded, order.Items[0].ReceivedQuantity)
		assert.Equal(t, before+int64(succeeded), env.StockCount(t, key))
		if succeeded == 8 {
			assert.Equal(t, "FULLY_RECEIVED", order.Status)
		}
	})
}
