package partner_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/application/apptest"
	apppartner "github.com/tyrefleet/backend/internal/application/partner"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

func newService(env *apptest.Env) *apppartner.SupplierService {
	return apppartner.NewSupplierService(env.Suppliers, env.Actors, env.Clock, env.Logger)
}

func TestSupplierService_Create(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	svc := newService(env)
	buyer := env.Actor(t, "buyer", identity.CapManageSupplier)

	created, err := svc.Create(ctx, buyer, apppartner.CreateSupplierRequest{Code: "rt-north", Name: "Northern Retreads", Type: "retreader"})
	require.NoError(t, err)
	assert.Equal(t, "RT-NORTH", created.Code)
	assert.Equal(t, "active", created.Status)
	assert.True(t, created.Balance.IsZero())
	assert.Equal(t, apptest.Now, created.CreatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Create(ctx, buyer, apppartner.CreateSupplierRequest{Code: "RT-NORTH", Name: "Copy", Type: "vendor"})
	de := new(shared.DomainError)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeAlreadyExists, de.Code)

	_, err = svc.Create(ctx, env.Actor(t, "clerk"), apppartner.CreateSupplierRequest{Code: "V9", Name: "Nope", Type: "vendor"})
	assert.True(t, shared.IsKind(err, shared.KindAuthorization))
	_, err = svc.Create(ctx, uuid.New(), apppartner.CreateSupplierRequest{Code: "V9", Name: "Nope", Type: "vendor"})
	assert.True(t, shared.IsKind(err, shared.KindAuthorization))

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestSupplierService_UpdateStatus(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	svc := newService(env)
	buyer := env.Actor(t, "buyer", identity.CapManageSupplier)
	s := env.Supplier(t, "BRIDGE", partner.SupplierTypeVendor)

	blocked, err := svc.UpdateStatus(ctx, s.ID, buyer, apppartner.UpdateSupplierStatusRequest{Status: "blocked"})
	require.NoError(t, err)
	assert.Equal(t, "blocked", blocked.Status)
	assert.Equal(t, s.Version+1, blocked.Version)

	_, err = svc.UpdateStatus(ctx, s.ID, buyer, apppartner.UpdateSupplierStatusRequest{Status: "blocked"})
	assert.True(t, shared.IsKind(err, shared.KindStateConflict))

	stored, err := env.Suppliers.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, partner.SupplierStatusBlocked, stored.Status)
	assert.True(t, shared.IsKind(stored.EnsureCanOrder(), shared.KindStateConflict))

	stale := *stored
	require.NoError(t, stored.ChangeStatus(env.Clock, partner.SupplierStatusActive))
	require.NoError(t, env.Suppliers.UpdateStatus(ctx, stored))
	require.NoError(t, stale.ChangeStatus(env.Clock, partner.SupplierStatusInactive))
	de := new(shared.DomainError)
	require.ErrorAs(t, env.Suppliers.UpdateStatus(ctx, &stale), &de)
	assert.Equal(t, shared.CodeConcurrentModification, de.Code)
}

func TestSupplierService_List(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()
	svc := newService(env)
	env.Supplier(t, "BRIDGE", partner.SupplierTypeVendor)
	env.Supplier(t, "MICH", partner.SupplierTypeVendor)
	env.Supplier(t, "RT-NORTH", partner.SupplierTypeRetreader)

	all, total, err := svc.List(ctx, apppartner.SupplierListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, all, 3)
	assert.Equal(t, "BRIDGE Ltd", all[0].Name)

	retreaders, total, err := svc.List(ctx, apppartner.SupplierListFilter{Type: "retreader"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "RT-NORTH", retreaders[0].Code)

	page, total, err := svc.List(ctx, apppartner.SupplierListFilter{PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "RT-NORTH Ltd", page[0].Name)

	owed, _, err := svc.List(ctx, apppartner.SupplierListFilter{HasBalance: true})
	require.NoError(t, err)
	assert.Empty(t, owed)
}
