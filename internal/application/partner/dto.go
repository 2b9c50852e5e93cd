package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/partner"
)

// CreateSupplierRequest represents a request to register a supplier
type CreateSupplierRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=200"`
	Type string `json:"type" binding:"required,oneof=vendor retreader"`
}

// UpdateSupplierStatusRequest moves a supplier between active, inactive and blocked
type UpdateSupplierStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive blocked"`
}

// SupplierListFilter represents the query of a supplier listing
type SupplierListFilter struct {
	Search     string `form:"search"`
	Status     string `form:"status" binding:"omitempty,oneof=active inactive blocked"`
	Type       string `form:"type" binding:"omitempty,oneof=vendor retreader"`
	HasBalance bool   `form:"has_balance"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToSupplierResponse converts a domain Supplier to SupplierResponse
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:        s.ID,
		Code:      s.Code,
		Name:      s.Name,
		Type:      string(s.Type),
		Status:    string(s.Status),
		Balance:   s.Balance,
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
