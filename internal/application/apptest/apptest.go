// Package apptest wires the application services over a throwaway database
// so workflow tests run against real repositories and real transactions.
package apptest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	appasset "github.com/tyrefleet/backend/internal/application/asset"
	appfinance "github.com/tyrefleet/backend/internal/application/finance"
	apppurchasing "github.com/tyrefleet/backend/internal/application/purchasing"
	appretread "github.com/tyrefleet/backend/internal/application/retread"
	appstock "github.com/tyrefleet/backend/internal/application/stock"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/sqlitetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// Now is the instant every Env clock returns
var Now = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

// Accounts is the chart of accounts postings use in tests
var Accounts = finance.Accounts{Inventory: "1400", Payable: "2100", Cash: "1000"}

// DefaultSpec is the tire spec used when a test does not care which one
var DefaultSpec = asset.Spec{Size: "295/80R22.5", Brand: "Michelin", Model: "X Multi D"}

// Env holds the repositories and services of one test database
type Env struct {
	DB        *gorm.DB
	Clock     shared.FixedClock
	Logger    *zap.Logger
	Scope     *persistence.GormTransactionScope
	Recorder  *appasset.Recorder
	Tires     *persistence.GormTireRepository
	Movements *persistence.GormMovementRepository
	Catalog   *persistence.GormCatalogRepository
	Suppliers *persistence.GormSupplierRepository
	Actors    *persistence.GormActorRepository
	Ledger    *persistence.GormLedgerRepository
	Txs       *persistence.GormTransactionRepository
	Posting   *appfinance.PostingService
}

// New opens a migrated sqlite database and builds the shared services
func New(t testing.TB) *Env {
	t.Helper()
	return NewWithDB(t, sqlitetest.Open(t))
}

// NewWithDB builds the shared services over an already migrated database
func NewWithDB(t testing.TB, db *gorm.DB, opts ...persistence.ScopeOption) *Env {
	t.Helper()
	log := zaptest.NewLogger(t)
	env := &Env{
		DB:        db,
		Clock:     shared.FixedClock{At: Now},
		Logger:    log,
		Scope:     persistence.NewGormTransactionScope(db, append([]persistence.ScopeOption{persistence.WithScopeLogger(log)}, opts...)...),
		Tires:     persistence.NewGormTireRepository(db),
		Movements: persistence.NewGormMovementRepository(db),
		Catalog:   persistence.NewGormCatalogRepository(db),
		Suppliers: persistence.NewGormSupplierRepository(db),
		Actors:    persistence.NewGormActorRepository(db),
		Ledger:    persistence.NewGormLedgerRepository(db),
		Txs:       persistence.NewGormTransactionRepository(db),
	}
	env.Recorder = appasset.NewRecorder(env.Clock)
	posting, err := appfinance.NewPostingService(env.Scope, env.Ledger, env.Suppliers, env.Actors, Accounts, env.Clock, log)
	require.NoError(t, err)
	env.Posting = posting
	return env
}

// TireService builds the tire lifecycle service
func (e *Env) TireService() *appasset.TireService {
	return appasset.NewTireService(e.Scope, e.Tires, e.Movements, e.Actors, e.Recorder, e.Logger)
}

// PurchaseOrders builds the purchasing service
func (e *Env) PurchaseOrders() *apppurchasing.PurchaseOrderService {
	return apppurchasing.NewPurchaseOrderService(e.Scope,
		persistence.NewGormPurchaseOrderRepository(e.DB),
		persistence.NewGormGoodsReceiptRepository(e.DB),
		e.Actors, e.Recorder, e.Posting, e.Logger)
}

// Retreads builds the retread service
func (e *Env) Retreads() *appretread.Service {
	return appretread.NewService(e.Scope, persistence.NewGormRetreadOrderRepository(e.DB),
		e.Actors, e.Recorder, e.Posting, e.Logger)
}

// Stock builds the stock service
func (e *Env) Stock() *appstock.Service {
	return appstock.NewService(e.Scope, e.Catalog, e.Tires, e.Actors, e.Clock, e.Logger)
}

// Actor saves an active actor holding caps and returns its id
func (e *Env) Actor(t testing.TB, name string, caps ...identity.Capability) uuid.UUID {
	t.Helper()
	a := &identity.Actor{ID: uuid.New(), Name: name, Active: true, Capabilities: caps}
	require.NoError(t, e.Actors.Save(context.Background(), a))
	return a.ID
}

// Supplier saves an active supplier of the given type
func (e *Env) Supplier(t testing.TB, code string, typ partner.SupplierType) *partner.Supplier {
	t.Helper()
	s, err := partner.NewSupplier(e.Clock, code, code+" Ltd", typ)
	require.NoError(t, err)
	require.NoError(t, e.Suppliers.Create(context.Background(), s))
	return s
}

// ApprovedOrder creates a purchase order with one line of DefaultSpec and takes it
// through approval. It returns the order id and the line id.
func (e *Env) ApprovedOrder(t testing.TB, supplierID uuid.UUID, quantity int, unitPrice string) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	svc := e.PurchaseOrders()
	requester := e.Actor(t, "buyer")
	approver := e.Actor(t, "manager", identity.CapApprovePurchaseOrder)

	order, err := svc.Create(ctx, requester, apppurchasing.CreatePurchaseOrderRequest{
		SupplierID: supplierID,
		Lines: []apppurchasing.PurchaseOrderLineInput{{
			Size: DefaultSpec.Size, Brand: DefaultSpec.Brand, Model: DefaultSpec.Model,
			Quantity: quantity, UnitPrice: decimal.RequireFromString(unitPrice),
		}},
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, requester, apppurchasing.UpdateStatusRequest{Status: "PENDING_APPROVAL"})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, order.ID, approver, apppurchasing.UpdateStatusRequest{Status: "APPROVED"})
	require.NoError(t, err)
	return order.ID, order.Items[0].ID
}

// StockTires receives n tires of DefaultSpec into IN_STORE and returns their ids
func (e *Env) StockTires(t testing.TB, n int) []uuid.UUID {
	t.Helper()
	vendor := e.Supplier(t, "V"+uuid.NewString()[:8], partner.SupplierTypeVendor)
	_, lineID := e.ApprovedOrder(t, vendor.ID, n, "400.00")
	resp, err := e.PurchaseOrders().ReceiveLine(context.Background(), lineID, e.Actor(t, "storeman"),
		apppurchasing.ReceiveLineRequest{Quantity: n})
	require.NoError(t, err)
	return resp.TireIDs
}

// UsedTires stocks n tires, mounts and removes each, and returns them in USED_STORE
func (e *Env) UsedTires(t testing.TB, n int) []uuid.UUID {
	t.Helper()
	ctx := context.Background()
	ids := e.StockTires(t, n)
	svc := e.TireService()
	fitter := e.Actor(t, "fitter")
	vehicle := uuid.New()
	for i, id := range ids {
		pos := "A" + string(rune('1'+i%9))
		_, err := svc.InstallTire(ctx, id, fitter, appasset.InstallTireRequest{VehicleID: vehicle, PositionID: pos, Odometer: 1000})
		require.NoError(t, err)
		_, err = svc.RemoveTire(ctx, id, fitter, appasset.RemoveTireRequest{Odometer: 41000, Reason: "tread worn"})
		require.NoError(t, err)
	}
	return ids
}

// StockCount returns the cached counter of a key, zero when the row does not exist
func (e *Env) StockCount(t testing.TB, key asset.StockKey) int64 {
	t.Helper()
	item, err := e.Catalog.FindByKey(context.Background(), key)
	require.NoError(t, err)
	if item == nil {
		return 0
	}
	return item.CurrentStock
}

// TireStatus reads the stored status of a tire
func (e *Env) TireStatus(t testing.TB, id uuid.UUID) asset.TireStatus {
	t.Helper()
	tire, err := e.Tires.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tire.Status
}

// Key is the stock key of DefaultSpec for a tire kind
func Key(kind asset.TireKind) asset.StockKey {
	return asset.StockKey{Size: DefaultSpec.Size, Brand: DefaultSpec.Brand, Model: DefaultSpec.Model, Kind: kind}
}

// Count returns the number of rows in model's table
func (e *Env) Count(t testing.TB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.DB.Model(model).Count(&n).Error)
	return n
}
