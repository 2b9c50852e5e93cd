package partner

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

const aggregateTypeSupplier = "Supplier"

// SupplierStatus represents the status of a supplier
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
	SupplierStatusBlocked  SupplierStatus = "blocked"
)

// SupplierType separates tire vendors from retread service providers
type SupplierType string

const (
	SupplierTypeVendor    SupplierType = "vendor"
	SupplierTypeRetreader SupplierType = "retreader"
)

// Supplier is a vendor or retreader we owe money to.
// Balance is the accounts payable position and only moves through ledger postings.
type Supplier struct {
	shared.BaseAggregateRoot
	Code    string
	Name    string
	Type    SupplierType
	Status  SupplierStatus
	Balance decimal.Decimal
}

// NewSupplier creates an active supplier with zero balance
func NewSupplier(clock shared.Clock, code, name string, supplierType SupplierType) (*Supplier, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || len(code) > 50 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "supplier code must be 1-50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "supplier name cannot be empty")
	}
	if supplierType != SupplierTypeVendor && supplierType != SupplierTypeRetreader {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "invalid supplier type")
	}
	return &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(clock),
		Code:              code,
		Name:              strings.TrimSpace(name),
		Type:              supplierType,
		Status:            SupplierStatusActive,
		Balance:           decimal.Zero,
	}, nil
}

// IsActive returns true if the supplier can receive new orders
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

// EnsureCanOrder rejects orders against an inactive or blocked supplier
func (s *Supplier) EnsureCanOrder() error {
	if !s.IsActive() {
		return shared.NewStateConflictError(aggregateTypeSupplier, s.ID.String(), string(s.Status), "ORDER",
			"supplier is not active")
	}
	return nil
}

// ChangeStatus moves the supplier to status, rejecting a no-op change.
// A blocked or inactive supplier takes no new orders; open balances stay payable.
func (s *Supplier) ChangeStatus(clock shared.Clock, status SupplierStatus) error {
	switch status {
	case SupplierStatusActive, SupplierStatusInactive, SupplierStatusBlocked:
	default:
		return shared.NewValidationError(shared.CodeInvalidStatus, "invalid supplier status: "+string(status))
	}
	if s.Status == status {
		return shared.NewStateConflictError(aggregateTypeSupplier, s.ID.String(), string(s.Status), string(status),
			"supplier is already "+string(status))
	}
	s.Status = status
	s.Touch(clock.Now())
	return nil
}
