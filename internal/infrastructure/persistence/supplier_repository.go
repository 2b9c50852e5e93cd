package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entitySupplier = "Supplier"

// GormSupplierRepository implements SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entitySupplier, id.String())
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the supplier row so balance checks and updates serialize
func (r *GormSupplierRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entitySupplier, id.String())
	}
	return model.ToDomain(), nil
}

// Create inserts a new supplier
func (r *GormSupplierRepository) Create(ctx context.Context, s *partner.Supplier) error {
	if err := r.db.WithContext(ctx).Create(models.SupplierModelFromDomain(s)).Error; err != nil {
		return classify(err)
	}
	return nil
}

// UpdateStatus writes the status under a version check and bumps the version
func (r *GormSupplierRepository) UpdateStatus(ctx context.Context, s *partner.Supplier) error {
	result := r.db.WithContext(ctx).Model(&models.SupplierModel{}).
		Where("id = ? AND version = ?", s.ID, s.Version).
		Updates(map[string]any{
			"status":     s.Status,
			"updated_at": s.UpdatedAt,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConcurrentModificationError(entitySupplier, s.ID.String())
	}
	s.IncrementVersion()
	return nil
}

// AdjustBalance applies delta with a relative UPDATE so concurrent postings add up,
// then reads back the stored balance.
func (r *GormSupplierRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.SupplierModel{}).
		Where("id = ?", id).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return decimal.Zero, classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return decimal.Zero, shared.NewNotFoundError(entitySupplier, id.String())
	}

	var model models.SupplierModel
	if err := db.Select("id", "balance").First(&model, "id = ?", id).Error; err != nil {
		return decimal.Zero, translateError(err, entitySupplier, id.String())
	}
	return model.Balance.Round(2), nil
}

// List returns a page of suppliers and the total match count
func (r *GormSupplierRepository) List(ctx context.Context, filter shared.Filter) ([]partner.Supplier, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SupplierModel{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "has_balance":
			if value == true {
				query = query.Where("balance <> 0")
			}
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	orderBy := ValidateSortField(filter.OrderBy, SupplierSortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.SupplierModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, classify(err)
	}
	suppliers := make([]partner.Supplier, len(rows))
	for i := range rows {
		suppliers[i] = *rows[i].ToDomain()
	}
	return suppliers, total, nil
}

var _ partner.SupplierRepository = (*GormSupplierRepository)(nil)
