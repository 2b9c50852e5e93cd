package finance_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/application/apptest"
	appfinance "github.com/tyrefleet/backend/internal/application/finance"
	apppurchasing "github.com/tyrefleet/backend/internal/application/purchasing"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/purchasing"
	"github.com/tyrefleet/backend/internal/domain/retread"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
)

// storedGRN saves a goods receipt that no workflow posted
func storedGRN(t *testing.T, env *apptest.Env, supplierID uuid.UUID, total string) *purchasing.GoodsReceipt {
	t.Helper()
	grn := &purchasing.GoodsReceipt{
		ID:              uuid.New(),
		ReceiptNumber:   "GRN202610" + uuid.NewString()[:4],
		PurchaseOrderID: uuid.New(),
		SupplierID:      supplierID,
		ReceivedAt:      apptest.Now,
		ReceivedBy:      uuid.New(),
		TotalCost:       decimal.RequireFromString(total),
	}
	require.NoError(t, persistence.NewGormGoodsReceiptRepository(env.DB).Create(context.Background(), grn))
	return grn
}

// storedRRN saves a retread receipt that no workflow posted
func storedRRN(t *testing.T, env *apptest.Env, id, supplierID uuid.UUID, total string) *retread.Receipt {
	t.Helper()
	rrn := &retread.Receipt{
		ID:            id,
		ReceiptNumber: "RRN202610" + uuid.NewString()[:4],
		OrderID:       uuid.New(),
		SupplierID:    supplierID,
		ReceivedAt:    apptest.Now,
		ReceivedBy:    uuid.New(),
		AcceptedCount: 1,
		TotalCost:     decimal.RequireFromString(total),
	}
	require.NoError(t, persistence.NewGormRetreadReceiptRepository(env.DB).Create(context.Background(), rrn))
	return rrn
}

func postEvent(kind finance.ReceiptKind, receiptID, actorID uuid.UUID) finance.ReceiptEvent {
	return finance.ReceiptEvent{Kind: kind, ReceiptID: receiptID, ActorID: actorID}
}

// seedBalance raises a supplier's balance by posting a stored receipt
func seedBalance(t *testing.T, env *apptest.Env, supplierID, poster uuid.UUID, total string) {
	t.Helper()
	grn := storedGRN(t, env, supplierID, total)
	_, err := env.Posting.PostReceiptFinancials(context.Background(), postEvent(finance.ReceiptKindPurchase, grn.ID, poster))
	require.NoError(t, err)
}

func TestPostReceiptFinancials(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	vendor := env.Supplier(t, "BRIDGE", partner.SupplierTypeVendor)
	poster := env.Actor(t, "accountant", identity.CapPostReceipt)

	grn := storedGRN(t, env, vendor.ID, "1234.565")
	posted, err := env.Posting.PostReceiptFinancials(ctx, postEvent(finance.ReceiptKindPurchase, grn.ID, poster))
	require.NoError(t, err)
	assert.Equal(t, "PURCHASE_RECEIPT", posted.Kind)
	assert.Equal(t, vendor.ID, posted.SupplierID)
	assert.True(t, decimal.RequireFromString("1234.57").Equal(posted.Amount), "rounded to cents: %s", posted.Amount)
	assert.True(t, posted.Amount.Equal(posted.BalanceAfter))
	assert.Equal(t, apptest.Now, posted.PostedAt)

	tx, err := env.Txs.FindByID(ctx, posted.TransactionID)
	require.NoError(t, err)
	require.Len(t, tx.Entries, 2)
	debit, credit := tx.Totals()
	assert.True(t, debit.Equal(credit))
	assert.Equal(t, apptest.Accounts.Inventory, tx.Entries[0].AccountCode)
	assert.Equal(t, finance.SideDebit, tx.Entries[0].Side)
	assert.Equal(t, apptest.Accounts.Payable, tx.Entries[1].AccountCode)
	require.NotNil(t, tx.Source.ID)
	assert.Equal(t, grn.ID, *tx.Source.ID)
	assert.Equal(t, grn.ReceiptNumber, tx.Source.Number)

	stored, err := persistence.NewGormGoodsReceiptRepository(env.DB).FindByID(ctx, grn.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AccountingTransactionID, "posting links the receipt")
	assert.Equal(t, posted.TransactionID, *stored.AccountingTransactionID)

	_, err = env.Posting.PostReceiptFinancials(ctx, postEvent(finance.ReceiptKindPurchase, grn.ID, poster))
	assert.True(t, shared.IsKind(err, shared.KindStateConflict), "second posting for one receipt: %v", err)

	_, err = env.Posting.PostReceiptFinancials(ctx, postEvent(finance.ReceiptKindRetread, grn.ID, poster))
	assert.True(t, shared.IsKind(err, shared.KindNotFound), "a GRN id is not a retread receipt: %v", err)

	// a retread receipt sharing the GRN's id is still a receipt already posted
	storedRRN(t, env, grn.ID, vendor.ID, "200")
	_, err = env.Posting.PostReceiptFinancials(ctx, postEvent(finance.ReceiptKindRetread, grn.ID, poster))
	assert.True(t, shared.IsKind(err, shared.KindStateConflict), "posted under the other kind: %v", err)
	assert.Equal(t, int64(1), env.Count(t, &models.AccountingTransactionModel{}))

	rrn := storedRRN(t, env, uuid.New(), vendor.ID, "200")
	posted, err = env.Posting.PostReceiptFinancials(ctx, postEvent(finance.ReceiptKindRetread, rrn.ID, poster))
	require.NoError(t, err)
	assert.Equal(t, "RETREAD_RECEIPT", posted.Kind)

	check, err := env.Posting.VerifySupplierBalance(ctx, vendor.ID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.Equal(t, int64(2), check.Entries)
	assert.True(t, decimal.RequireFromString("1434.57").Equal(check.Balance))
}

func TestPostReceiptFinancials_WorkflowReceiptIsAlreadyPosted(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	vendor := env.Supplier(t, "BRIDGE", partner.SupplierTypeVendor)
	poster := env.Actor(t, "accountant", identity.CapPostReceipt)

	_, lineID := env.ApprovedOrder(t, vendor.ID, 2, "400.00")
	received, err := env.PurchaseOrders().ReceiveLine(ctx, lineID, env.Actor(t, "storeman"),
		apppurchasing.ReceiveLineRequest{Quantity: 2})
	require.NoError(t, err)

	_, err = env.Posting.PostReceiptFinancials(ctx, postEvent(finance.ReceiptKindPurchase, received.Receipt.ID, poster))
	assert.True(t, shared.IsKind(err, shared.KindStateConflict), "got %v", err)
	assert.Equal(t, int64(1), env.Count(t, &models.AccountingTransactionModel{}))
}

func TestPostReceiptFinancials_Rejects(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	vendor := env.Supplier(t, "BRIDGE", partner.SupplierTypeVendor)
	other := env.Supplier(t, "OTHER", partner.SupplierTypeVendor)
	clerk := env.Actor(t, "clerk")
	poster := env.Actor(t, "accountant", identity.CapPostReceipt)

	grn := storedGRN(t, env, vendor.ID, "10")
	zero := storedGRN(t, env, vendor.ID, "0.004")

	wrongSupplier := postEvent(finance.ReceiptKindPurchase, grn.ID, poster)
	wrongSupplier.SupplierID = other.ID
	wrongAmount := postEvent(finance.ReceiptKindPurchase, grn.ID, poster)
	wrongAmount.Amount = decimal.NewFromInt(10000)

	for name, ev := range map[string]finance.ReceiptEvent{
		"zero after rounding": postEvent(finance.ReceiptKindPurchase, zero.ID, poster),
		"unknown kind":        postEvent("SALES_RECEIPT", grn.ID, poster),
		"supplier mismatch":   wrongSupplier,
		"amount mismatch":     wrongAmount,
	} {
		_, err := env.Posting.PostReceiptFinancials(ctx, ev)
		assert.True(t, shared.IsKind(err, shared.KindValidation), "%s: %v", name, err)
	}
	for name, ev := range map[string]finance.ReceiptEvent{
		"no capability": postEvent(finance.ReceiptKindPurchase, grn.ID, clerk),
		"unknown actor": postEvent(finance.ReceiptKindPurchase, grn.ID, uuid.New()),
		"no actor":      postEvent(finance.ReceiptKindPurchase, grn.ID, uuid.Nil),
	} {
		_, err := env.Posting.PostReceiptFinancials(ctx, ev)
		assert.True(t, shared.IsKind(err, shared.KindAuthorization), "%s: %v", name, err)
	}
	_, err := env.Posting.PostReceiptFinancials(ctx, postEvent(finance.ReceiptKindPurchase, uuid.New(), poster))
	assert.True(t, shared.IsKind(err, shared.KindNotFound), "made-up receipt id: %v", err)

	assert.Zero(t, env.Count(t, &models.AccountingTransactionModel{}))
	assert.Zero(t, env.Count(t, &models.SupplierLedgerEntryModel{}))
}

func TestRecordSupplierPayment(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	vendor := env.Supplier(t, "BRIDGE", partner.SupplierTypeVendor)
	clerk := env.Actor(t, "clerk")
	treasurer := env.Actor(t, "treasurer", identity.CapPaySupplier)
	seedBalance(t, env, vendor.ID, env.Actor(t, "accountant", identity.CapPostReceipt), "1000")

	t.Run("needs supplier:pay", func(t *testing.T) {
		_, err := env.Posting.RecordSupplierPayment(ctx, vendor.ID, clerk,
			appfinance.SupplierPaymentRequest{Amount: decimal.NewFromInt(100), Reference: "EFT-1"})
		assert.True(t, shared.IsKind(err, shared.KindAuthorization))
	})

	t.Run("input checks", func(t *testing.T) {
		_, err := env.Posting.RecordSupplierPayment(ctx, vendor.ID, treasurer,
			appfinance.SupplierPaymentRequest{Amount: decimal.Zero, Reference: "EFT-1"})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
		_, err = env.Posting.RecordSupplierPayment(ctx, vendor.ID, treasurer,
			appfinance.SupplierPaymentRequest{Amount: decimal.NewFromInt(5), Reference: "  "})
		assert.True(t, shared.IsKind(err, shared.KindValidation))
	})

	t.Run("overpayment is refused before the balance moves", func(t *testing.T) {
		_, err := env.Posting.RecordSupplierPayment(ctx, vendor.ID, treasurer,
			appfinance.SupplierPaymentRequest{Amount: decimal.RequireFromString("1000.01"), Reference: "EFT-2"})
		require.True(t, shared.IsKind(err, shared.KindStateConflict), "got %v", err)
		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "balance=1000.00", derr.CurrentState)
		assert.Equal(t, int64(1), env.Count(t, &models.AccountingTransactionModel{}))
	})

	t.Run("partial payment", func(t *testing.T) {
		paid, err := env.Posting.RecordSupplierPayment(ctx, vendor.ID, treasurer,
			appfinance.SupplierPaymentRequest{Amount: decimal.RequireFromString("400.25"), Reference: "EFT-3"})
		require.NoError(t, err)
		assert.Equal(t, "SUPPLIER_PAYMENT", paid.Kind)
		assert.True(t, decimal.RequireFromString("599.75").Equal(paid.BalanceAfter), "balance %s", paid.BalanceAfter)

		tx, err := env.Txs.FindByID(ctx, paid.TransactionID)
		require.NoError(t, err)
		assert.True(t, tx.IsBalanced())
		assert.Equal(t, apptest.Accounts.Payable, tx.Entries[0].AccountCode)
		assert.Equal(t, apptest.Accounts.Cash, tx.Entries[1].AccountCode)

		check, err := env.Posting.VerifySupplierBalance(ctx, vendor.ID)
		require.NoError(t, err)
		assert.True(t, check.Consistent)
		assert.Equal(t, int64(2), check.Entries)
	})

	t.Run("settles to zero", func(t *testing.T) {
		paid, err := env.Posting.RecordSupplierPayment(ctx, vendor.ID, treasurer,
			appfinance.SupplierPaymentRequest{Amount: decimal.RequireFromString("599.75"), Reference: "EFT-4"})
		require.NoError(t, err)
		assert.True(t, paid.BalanceAfter.IsZero())
	})
}

func TestVerifyAllSupplierBalances(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	poster := env.Actor(t, "accountant", identity.CapPostReceipt)
	healthy := env.Supplier(t, "HEALTHY", partner.SupplierTypeVendor)
	drifted := env.Supplier(t, "DRIFTED", partner.SupplierTypeRetreader)
	for _, s := range []*partner.Supplier{healthy, drifted} {
		seedBalance(t, env, s.ID, poster, "300")
	}

	mismatches, err := env.Posting.VerifyAllSupplierBalances(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	require.NoError(t, env.DB.Model(&models.SupplierModel{}).Where("id = ?", drifted.ID).
		Update("balance", decimal.NewFromInt(250)).Error)

	mismatches, err = env.Posting.VerifyAllSupplierBalances(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, drifted.ID, mismatches[0].SupplierID)
	assert.False(t, mismatches[0].Consistent)
	assert.True(t, decimal.NewFromInt(-50).Equal(mismatches[0].Difference), "difference %s", mismatches[0].Difference)
}
