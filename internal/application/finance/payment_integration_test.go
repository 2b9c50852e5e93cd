//go:build integration

package finance_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/application/apptest"
	appfinance "github.com/tyrefleet/backend/internal/application/finance"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/pgtest"
)

func TestRecordSupplierPayment_OverpaymentOnPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	env := apptest.NewWithDB(t, pgtest.Open(t))
	ctx := context.Background()
	vendor := env.Supplier(t, "BRIDGE", partner.SupplierTypeVendor)
	treasurer := env.Actor(t, "treasurer", identity.CapPaySupplier)
	seedBalance(t, env, vendor.ID, env.Actor(t, "accountant", identity.CapPostReceipt), "100")

	t.Run("single overpayment is a state conflict", func(t *testing.T) {
		_, err := env.Posting.RecordSupplierPayment(ctx, vendor.ID, treasurer,
			appfinance.SupplierPaymentRequest{Amount: decimal.RequireFromString("100.01"), Reference: "EFT-1"})
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, shared.KindStateConflict, derr.Kind)
		assert.NotEqual(t, shared.CodeConstraintViolation, derr.Code)
	})

	t.Run("concurrent payments never drive the balance negative", func(t *testing.T) {
		errs := make([]error, 2)
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[i] = env.Posting.RecordSupplierPayment(ctx, vendor.ID, treasurer,
					appfinance.SupplierPaymentRequest{Amount: decimal.NewFromInt(60), Reference: "EFT-C"})
			}()
		}
		close(start)
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err != nil {
				failed++
				assert.True(t, shared.IsKind(err, shared.KindStateConflict), "got %v", err)
			}
		}
		assert.Equal(t, 1, failed)

		check, err := env.Posting.VerifySupplierBalance(ctx, vendor.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(40).Equal(check.Balance), "balance %s", check.Balance)
		assert.True(t, check.Consistent)
	})
}
