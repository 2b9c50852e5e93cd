package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"go.uber.org/zap/zaptest"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, actorID uuid.UUID) (*identity.Actor, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Actor), args.Error(1)
}

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisActorCache_NilClientPassesThrough(t *testing.T) {
	actor := &identity.Actor{ID: uuid.New(), Name: "clerk", Active: true}
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, actor.ID).Return(actor, nil).Twice()

	c := NewRedisActorCache(nil, resolver, 0, zaptest.NewLogger(t))
	for i := 0; i < 2; i++ {
		got, err := c.Resolve(context.Background(), actor.ID)
		require.NoError(t, err)
		assert.Same(t, actor, got)
	}
	assert.NoError(t, c.Invalidate(context.Background(), actor.ID))
	resolver.AssertExpectations(t)
}

func TestRedisActorCache_RedisDownFallsBackToResolver(t *testing.T) {
	client := unreachableClient()
	t.Cleanup(func() { _ = client.Close() })

	actor := &identity.Actor{ID: uuid.New(), Name: "clerk", Active: true,
		Capabilities: []identity.Capability{identity.CapPaySupplier}}
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, actor.ID).Return(actor, nil).Once()

	c := NewRedisActorCache(client, resolver, time.Minute, zaptest.NewLogger(t))
	got, err := c.Resolve(context.Background(), actor.ID)

	require.NoError(t, err)
	assert.True(t, got.Has(identity.CapPaySupplier))
	resolver.AssertExpectations(t)
}

func TestRedisActorCache_NotFoundIsReturned(t *testing.T) {
	id := uuid.New()
	resolver := new(mockResolver)
	resolver.On("Resolve", mock.Anything, id).Return(nil, shared.NewNotFoundError("Actor", id.String()))

	c := NewRedisActorCache(nil, resolver, time.Minute, nil)
	_, err := c.Resolve(context.Background(), id)

	assert.True(t, shared.IsKind(err, shared.KindNotFound))
}

func TestCachedActor_DropsUnknownCapabilities(t *testing.T) {
	cached := cachedActor{
		ID:           uuid.New(),
		Active:       true,
		Capabilities: []string{string(identity.CapDisposeTire), "billing:refund"},
	}
	actor := cached.toActor()
	assert.Equal(t, []identity.Capability{identity.CapDisposeTire}, actor.Capabilities)
}

func TestSequenceKey(t *testing.T) {
	at := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "seq:GRN:202603", SequenceKey(shared.PrefixGoodsReceipt, at))
}

func TestRedisSequenceGenerator_RedisDownIsRetryable(t *testing.T) {
	client := unreachableClient()
	t.Cleanup(func() { _ = client.Close() })

	_, err := NewRedisSequenceGenerator(client).Next(context.Background(), shared.PrefixPurchaseOrder, time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsRetryable(err))
}
