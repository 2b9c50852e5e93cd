package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	assetapp "github.com/tyrefleet/backend/internal/application/asset"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

type mockTireService struct {
	mock.Mock
}

func (m *mockTireService) tire(args mock.Arguments) (*assetapp.TireResponse, error) {
	if v := args.Get(0); v != nil {
		return v.(*assetapp.TireResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTireService) GetTire(ctx context.Context, tireID uuid.UUID) (*assetapp.TireResponse, error) {
	return m.tire(m.Called(ctx, tireID))
}

func (m *mockTireService) GetTireBySerial(ctx context.Context, serial string) (*assetapp.TireResponse, error) {
	return m.tire(m.Called(ctx, serial))
}

func (m *mockTireService) InstallTire(ctx context.Context, tireID, actorID uuid.UUID, req assetapp.InstallTireRequest) (*assetapp.TireResponse, error) {
	return m.tire(m.Called(ctx, tireID, actorID, req))
}

func (m *mockTireService) RemoveTire(ctx context.Context, tireID, actorID uuid.UUID, req assetapp.RemoveTireRequest) (*assetapp.TireResponse, error) {
	return m.tire(m.Called(ctx, tireID, actorID, req))
}

func (m *mockTireService) MarkForRetread(ctx context.Context, tireID, actorID uuid.UUID, req assetapp.MarkForRetreadRequest) (*assetapp.TireResponse, error) {
	return m.tire(m.Called(ctx, tireID, actorID, req))
}

func (m *mockTireService) DisposeTire(ctx context.Context, tireID, authorizerID uuid.UUID, req assetapp.DisposeTireRequest) (*assetapp.TireResponse, error) {
	return m.tire(m.Called(ctx, tireID, authorizerID, req))
}

func (m *mockTireService) ReverseDisposal(ctx context.Context, tireID, authorizerID uuid.UUID, req assetapp.ReverseDisposalRequest) (*assetapp.TireResponse, error) {
	return m.tire(m.Called(ctx, tireID, authorizerID, req))
}

func (m *mockTireService) ListMovements(ctx context.Context, tireID uuid.UUID, afterSeq int64, limit int) ([]assetapp.MovementResponse, error) {
	args := m.Called(ctx, tireID, afterSeq, limit)
	if v := args.Get(0); v != nil {
		return v.([]assetapp.MovementResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTireService) VerifyTireConsistency(ctx context.Context, tireID uuid.UUID) (*assetapp.ConsistencyReport, error) {
	args := m.Called(ctx, tireID)
	if v := args.Get(0); v != nil {
		return v.(*assetapp.ConsistencyReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestTireHandler_Get(t *testing.T) {
	svc := new(mockTireService)
	api := newTestAPI(t, NewTireHandler(svc))
	id := uuid.New()
	svc.On("GetTire", mock.Anything, id).Return(&assetapp.TireResponse{ID: id, SerialNumber: "BS-001", Status: "IN_STORE"}, nil)

	rec := api.do(http.MethodGet, "/tires/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tire assetapp.TireResponse
	resp := decode(t, rec, &tire)
	assert.True(t, resp.Success)
	assert.Equal(t, "BS-001", tire.SerialNumber)

	rec = api.do(http.MethodGet, "/tires/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := uuid.New()
	svc.On("GetTire", mock.Anything, missing).Return(nil, shared.NewNotFoundError("Tire", missing.String()))
	rec = api.do(http.MethodGet, "/tires/"+missing.String(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	info := decode(t, rec, nil).Error
	require.NotNil(t, info)
	assert.Equal(t, shared.CodeNotFound, info.Code)
	require.NotNil(t, info.Entity)
	assert.Equal(t, missing.String(), info.Entity.ID)
	assert.NotEmpty(t, info.RequestID)
}

func TestTireHandler_InstallPassesAuthenticatedActor(t *testing.T) {
	svc := new(mockTireService)
	api := newTestAPI(t, NewTireHandler(svc))
	id := uuid.New()
	req := assetapp.InstallTireRequest{VehicleID: uuid.New(), PositionID: "L1", Odometer: 1200}
	svc.On("InstallTire", mock.Anything, id, api.actorID, req).
		Return(&assetapp.TireResponse{ID: id, Status: "ON_VEHICLE"}, nil).Once()

	rec := api.do(http.MethodPost, "/tires/"+id.String()+"/install", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestTireHandler_CommandErrors(t *testing.T) {
	id := uuid.New()

	t.Run("binding failure lists fields", func(t *testing.T) {
		svc := new(mockTireService)
		api := newTestAPI(t, NewTireHandler(svc))

		rec := api.do(http.MethodPost, "/tires/"+id.String()+"/dispose", map[string]string{"method": "BURN"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		info := decode(t, rec, nil).Error
		require.NotNil(t, info)
		assert.Equal(t, shared.CodeInvalidInput, info.Code)
		fields := map[string]bool{}
		for _, d := range info.Details {
			fields[d.Field] = true
		}
		assert.True(t, fields["method"])
		assert.True(t, fields["reason"])
		svc.AssertNotCalled(t, "DisposeTire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty body is the zero request", func(t *testing.T) {
		svc := new(mockTireService)
		api := newTestAPI(t, NewTireHandler(svc))
		svc.On("MarkForRetread", mock.Anything, id, api.actorID, assetapp.MarkForRetreadRequest{}).
			Return(&assetapp.TireResponse{ID: id, Status: "AWAITING_RETREAD"}, nil)

		rec := api.do(http.MethodPost, "/tires/"+id.String()+"/mark-for-retread", nil)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"state conflict", shared.NewStateConflictError("Tire", id.String(), "ON_VEHICLE", "DISPOSED", "remove the tire first"), http.StatusConflict, shared.CodeInvalidState},
		{"forbidden", shared.NewAuthorizationError(uuid.NewString(), "tire:dispose", "missing capability"), http.StatusForbidden, shared.CodeForbidden},
		{"lost race", shared.NewConcurrentModificationError("Tire", id.String()), http.StatusConflict, shared.CodeConcurrentModification},
		{"transient", shared.NewPersistenceError(shared.CodeTransientFailure, errors.New("conn reset"), true), http.StatusServiceUnavailable, shared.CodeTransientFailure},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockTireService)
			api := newTestAPI(t, NewTireHandler(svc))
			req := assetapp.DisposeTireRequest{Method: "SCRAP", Reason: "sidewall cut"}
			svc.On("DisposeTire", mock.Anything, id, api.actorID, req).Return(nil, tt.err)

			rec := api.do(http.MethodPost, "/tires/"+id.String()+"/dispose", req)
			require.Equal(t, tt.status, rec.Code)
			info := decode(t, rec, nil).Error
			require.NotNil(t, info)
			assert.Equal(t, tt.code, info.Code)
			assert.NotContains(t, rec.Body.String(), "conn reset")
		})
	}
}

func TestTireHandler_Movements(t *testing.T) {
	svc := new(mockTireService)
	api := newTestAPI(t, NewTireHandler(svc))
	id := uuid.New()
	page := []assetapp.MovementResponse{{Sequence: 3}, {Sequence: 4}}
	svc.On("ListMovements", mock.Anything, id, int64(2), 2).Return(page, nil)
	svc.On("ListMovements", mock.Anything, id, int64(0), defaultMovementPage).Return(page, nil)

	rec := api.do(http.MethodGet, "/tires/"+id.String()+"/movements?after=2&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec, nil)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Count)
	assert.Equal(t, int64(4), resp.Meta.NextAfter, "a full page points at the next one")

	rec = api.do(http.MethodGet, "/tires/"+id.String()+"/movements", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode(t, rec, nil).Meta.NextAfter)

	for _, q := range []string{"after=-1", "limit=0", "limit=501", "limit=ten"} {
		rec = api.do(http.MethodGet, "/tires/"+id.String()+"/movements?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}
