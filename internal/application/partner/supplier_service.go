// Package partner manages the suppliers that purchase and retread orders are placed with.
// Balances are not editable here; they move only through finance postings.
package partner

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SupplierService handles supplier registration and status changes
type SupplierService struct {
	suppliers partner.SupplierRepository
	actors    identity.ActorResolver
	clock     shared.Clock
	logger    *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(suppliers partner.SupplierRepository, actors identity.ActorResolver, clock shared.Clock, logger *zap.Logger) *SupplierService {
	return &SupplierService{
		suppliers: suppliers,
		actors:    actors,
		clock:     clock,
		logger:    logger,
	}
}

// Create registers a supplier with a zero balance. The actor needs supplier:manage.
func (s *SupplierService) Create(ctx context.Context, actorID uuid.UUID, req CreateSupplierRequest) (*SupplierResponse, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	supplier, err := partner.NewSupplier(s.clock, req.Code, req.Name, partner.SupplierType(req.Type))
	if err != nil {
		return nil, err
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) && de.Code == shared.CodeConstraintViolation {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "supplier with this code already exists")
		}
		return nil, err
	}

	s.logger.Info("supplier created",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("code", supplier.Code),
		zap.String("type", string(supplier.Type)))
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// Get returns a supplier by id
func (s *SupplierService) Get(ctx context.Context, supplierID uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// List returns a page of suppliers and the total match count
func (s *SupplierService) List(ctx context.Context, filter SupplierListFilter) ([]SupplierResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.OrderBy = "name"
	domainFilter.OrderDir = "asc"
	domainFilter.Search = filter.Search
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.HasBalance {
		domainFilter.Filters["has_balance"] = true
	}

	suppliers, total, err := s.suppliers.List(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		out[i] = ToSupplierResponse(&suppliers[i])
	}
	return out, total, nil
}

// UpdateStatus activates, deactivates or blocks a supplier. The actor needs supplier:manage.
func (s *SupplierService) UpdateStatus(ctx context.Context, supplierID, actorID uuid.UUID, req UpdateSupplierStatusRequest) (*SupplierResponse, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	from := supplier.Status
	if err := supplier.ChangeStatus(s.clock, partner.SupplierStatus(req.Status)); err != nil {
		return nil, err
	}
	if err := s.suppliers.UpdateStatus(ctx, supplier); err != nil {
		return nil, err
	}

	s.logger.Info("supplier status changed",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(supplier.Status)),
		zap.String("actor_id", actorID.String()))
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

func (s *SupplierService) authorize(ctx context.Context, actorID uuid.UUID) error {
	actor, err := s.actors.Resolve(ctx, actorID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return shared.NewAuthorizationError(actorID.String(), string(identity.CapManageSupplier), "unknown actor")
		}
		return err
	}
	return actor.Require(identity.CapManageSupplier)
}
