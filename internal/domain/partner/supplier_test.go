package partner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

func TestNewSupplier(t *testing.T) {
	clock := shared.FixedClock{At: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)}

	s, err := NewSupplier(clock, " rt-north ", "Northern Retreads", SupplierTypeRetreader)
	require.NoError(t, err)
	assert.Equal(t, "RT-NORTH", s.Code)
	assert.True(t, s.IsActive())
	assert.True(t, s.Balance.IsZero())
	assert.NoError(t, s.EnsureCanOrder())

	require.NoError(t, s.ChangeStatus(clock, SupplierStatusBlocked))
	assert.True(t, shared.IsKind(s.EnsureCanOrder(), shared.KindStateConflict))
	assert.True(t, shared.IsKind(s.ChangeStatus(clock, SupplierStatusBlocked), shared.KindStateConflict))
	assert.True(t, shared.IsKind(s.ChangeStatus(clock, "suspended"), shared.KindValidation))
	require.NoError(t, s.ChangeStatus(clock, SupplierStatusActive))
	assert.NoError(t, s.EnsureCanOrder())

	_, err = NewSupplier(clock, "", "x", SupplierTypeVendor)
	assert.Error(t, err)
	_, err = NewSupplier(clock, "V1", "x", "wholesale")
	assert.Error(t, err)
}
