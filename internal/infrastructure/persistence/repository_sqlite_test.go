package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/retread"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/sqlitetest"
)

func TestSequenceGenerator_SQLite(t *testing.T) {
	db := sqlitetest.Open(t)
	gen := NewGormSequenceGenerator(db)
	ctx := context.Background()
	oct := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

	first, err := gen.Next(ctx, shared.PrefixPurchaseOrder, oct)
	require.NoError(t, err)
	second, err := gen.Next(ctx, shared.PrefixPurchaseOrder, oct)
	require.NoError(t, err)
	otherPrefix, err := gen.Next(ctx, shared.PrefixRetreadOrder, oct)
	require.NoError(t, err)
	nextMonth, err := gen.Next(ctx, shared.PrefixPurchaseOrder, oct.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Equal(t, "PO2026100001", first)
	assert.Equal(t, "PO2026100002", second)
	assert.Equal(t, "RTO2026100001", otherPrefix)
	assert.Equal(t, "PO2026110001", nextMonth)
}

func TestLedgerRepository_Sum(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewGormLedgerRepository(db)
	ctx := context.Background()
	supplierID := uuid.New()

	for _, e := range []struct {
		kind   finance.LedgerEntryKind
		amount string
	}{
		{finance.LedgerPurchase, "100.50"},
		{finance.LedgerRetreadService, "20.25"},
		{finance.LedgerPayment, "50.00"},
	} {
		require.NoError(t, repo.Append(ctx, &finance.LedgerEntry{
			ID:            uuid.New(),
			SupplierID:    supplierID,
			Kind:          e.kind,
			Amount:        decimal.RequireFromString(e.amount),
			TransactionID: uuid.New(),
			ActorID:       uuid.New(),
			OccurredAt:    time.Now().UTC(),
		}))
	}
	// another supplier's entry must not leak into the sum
	require.NoError(t, repo.Append(ctx, &finance.LedgerEntry{
		ID: uuid.New(), SupplierID: uuid.New(), Kind: finance.LedgerPurchase,
		Amount: decimal.NewFromInt(999), TransactionID: uuid.New(), ActorID: uuid.New(), OccurredAt: time.Now().UTC(),
	}))

	sum, count, err := repo.Sum(ctx, supplierID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.True(t, decimal.RequireFromString("70.75").Equal(sum), "got %s", sum)

	empty, n, err := repo.Sum(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, empty.IsZero())
}

func TestTransactionRepository_OnePostingPerSource(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewGormTransactionRepository(db)
	ctx := context.Background()
	accounts := finance.Accounts{Inventory: "1400", Payable: "2100", Cash: "1000"}
	receiptID := uuid.New()

	post := func(number string) (*finance.Transaction, error) {
		return finance.NewTransaction(number, finance.KindPurchaseReceipt, uuid.New(),
			finance.Source{ID: &receiptID, Number: "GRN2026100001"}, "receipt", uuid.New(), time.Now().UTC(),
			accounts.ReceiptEntries(decimal.NewFromInt(400), "GRN2026100001"))
	}

	tx, err := post("TXN2026100001")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, tx))

	exists, err := repo.ExistsForSource(ctx, finance.KindPurchaseReceipt, receiptID)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := repo.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Entries, 2)
	assert.True(t, loaded.IsBalanced())
	assert.Equal(t, finance.SideDebit, loaded.Entries[0].Side)

	dup, err := post("TXN2026100002")
	require.NoError(t, err)
	err = repo.Create(ctx, dup)
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeConstraintViolation, de.Code)
	assert.False(t, de.Retryable)
}

func TestRetreadOrderRepository_FindOpenItemByTire(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewGormRetreadOrderRepository(db)
	ctx := context.Background()
	clock := shared.FixedClock{At: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}
	tireID := uuid.New()

	order, err := retread.NewOrder(clock, "RTO2026100001", uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	_, err = order.AddTire(tireID, decimal.NewFromInt(80), clock.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, order))

	item, err := repo.FindOpenItemByTire(ctx, tireID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, order.ID, item.OrderID)

	none, err := repo.FindOpenItemByTire(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)

	locked, err := repo.FindByIDForUpdate(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, locked.Cancel(clock.Now()))
	require.NoError(t, repo.SaveWithLock(ctx, locked))
	assert.Equal(t, 2, locked.Version)

	item, err = repo.FindOpenItemByTire(ctx, tireID)
	require.NoError(t, err)
	assert.Nil(t, item, "a cancelled order no longer binds its tires")
}

func TestPurchaseOrderRepository_SaveWithLock_SyncsLines(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()
	clock := shared.FixedClock{At: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}

	order, err := purchasingOrderFixture(clock)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, order))
	first := order.Items[0].ID

	loaded, err := repo.FindByIDForUpdate(ctx, order.ID)
	require.NoError(t, err)
	added, err := loaded.AddItem(asset.Spec{Size: "11R22.5", Brand: "Bridgestone", Model: "R249"}, 2, decimal.NewFromInt(90), clock.Now())
	require.NoError(t, err)
	require.NoError(t, loaded.RemoveItem(first, 0, clock.Now()))
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, added.ID, reloaded.Items[0].ID)
	assert.Equal(t, 2, reloaded.Version)

	// the in-memory copy loaded before the save is now stale
	order.Notes = "late edit"
	err = repo.SaveWithLock(ctx, order)
	assert.True(t, shared.IsRetryable(err))
}

func TestActorRepository_SaveAndResolve(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewGormActorRepository(db)
	ctx := context.Background()

	actor := &identity.Actor{
		ID:           uuid.New(),
		Name:         "Depot supervisor",
		Active:       true,
		Capabilities: []identity.Capability{identity.CapApprovePurchaseOrder},
	}
	require.NoError(t, repo.Save(ctx, actor))

	actor.Capabilities = append(actor.Capabilities, identity.CapDisposeTire)
	require.NoError(t, repo.Save(ctx, actor))

	resolved, err := repo.Resolve(ctx, actor.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Has(identity.CapApprovePurchaseOrder))
	assert.True(t, resolved.Has(identity.CapDisposeTire))
	assert.False(t, resolved.Has(identity.CapPaySupplier))

	_, err = repo.Resolve(ctx, uuid.New())
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestSupplierRepository_StatusBalanceAndList(t *testing.T) {
	db := sqlitetest.Open(t)
	repo := NewGormSupplierRepository(db)
	ctx := context.Background()
	clock := shared.FixedClock{At: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}

	vendor, err := partner.NewSupplier(clock, "bridge", "Bridgestone Depot", partner.SupplierTypeVendor)
	require.NoError(t, err)
	retreader, err := partner.NewSupplier(clock, "RECAP", "Recap Works", partner.SupplierTypeRetreader)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, vendor))
	require.NoError(t, repo.Create(ctx, retreader))

	dup, err := partner.NewSupplier(clock, "BRIDGE", "Another", partner.SupplierTypeVendor)
	require.NoError(t, err)
	assert.Error(t, repo.Create(ctx, dup), "codes are unique")

	stale := *vendor
	require.NoError(t, vendor.ChangeStatus(clock, partner.SupplierStatusBlocked))
	require.NoError(t, repo.UpdateStatus(ctx, vendor))
	require.NoError(t, stale.ChangeStatus(clock, partner.SupplierStatusInactive))
	assert.True(t, shared.IsRetryable(repo.UpdateStatus(ctx, &stale)))

	stored, err := repo.FindByID(ctx, vendor.ID)
	require.NoError(t, err)
	assert.Equal(t, partner.SupplierStatusBlocked, stored.Status)
	assert.Equal(t, vendor.Version, stored.Version)

	balance, err := repo.AdjustBalance(ctx, retreader.ID, decimal.RequireFromString("75.25"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("75.25").Equal(balance), "balance %s", balance)
	_, err = repo.AdjustBalance(ctx, uuid.New(), decimal.NewFromInt(1))
	assert.True(t, shared.IsKind(err, shared.KindNotFound))

	filter := shared.DefaultFilter()
	filter.OrderBy = "name"
	filter.OrderDir = "asc"
	all, total, err := repo.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, all, 2)
	assert.Equal(t, "BRIDGE", all[0].Code)

	filter.Filters["has_balance"] = true
	owed, total, err := repo.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, owed, 1)
	assert.Equal(t, retreader.ID, owed[0].ID)

	filter = shared.DefaultFilter()
	filter.Filters["status"] = partner.SupplierStatusBlocked
	blocked, _, err := repo.List(ctx, filter)
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, vendor.ID, blocked[0].ID)
}
