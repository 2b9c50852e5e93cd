package models

import (
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/partner"
)

// SupplierModel is the persistence model for the Supplier aggregate
type SupplierModel struct {
	AggregateModel
	Code    string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name    string                 `gorm:"type:varchar(200);not null"`
	Type    partner.SupplierType   `gorm:"type:varchar(20);not null;default:'vendor'"`
	Status  partner.SupplierStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Balance decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier
func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		BaseAggregateRoot: m.AggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		Type:              m.Type,
		Status:            m.Status,
		Balance:           m.Balance,
	}
}

// SupplierModelFromDomain creates a persistence model from a domain Supplier
func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{
		Code:    s.Code,
		Name:    s.Name,
		Type:    s.Type,
		Status:  s.Status,
		Balance: s.Balance,
	}
	m.SetAggregateRoot(s.BaseAggregateRoot)
	return m
}
