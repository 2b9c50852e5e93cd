package persistence

import (
	"context"
	"time"

	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/stock"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityCatalogItem = "CatalogItem"

var catalogKeyColumns = []clause.Column{{Name: "size"}, {Name: "brand"}, {Name: "model"}, {Name: "kind"}}

// GormCatalogRepository implements CatalogRepository using GORM.
// Counters only move through relative updates; SetCount is reserved for reconciliation.
type GormCatalogRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db, now: time.Now}
}

func whereKey(db *gorm.DB, key asset.StockKey) *gorm.DB {
	return db.Where("size = ? AND brand = ? AND model = ? AND kind = ?", key.Size, key.Brand, key.Model, key.Kind)
}

// ensure creates the counter row of a key if it does not exist yet
func (r *GormCatalogRepository) ensure(ctx context.Context, key asset.StockKey) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: catalogKeyColumns, DoNothing: true}).
		Create(models.NewTireCatalogModel(key, r.now())).Error
	return classify(err)
}

func (r *GormCatalogRepository) lock(ctx context.Context, key asset.StockKey) (*models.TireCatalogModel, error) {
	var model models.TireCatalogModel
	err := whereKey(r.db.WithContext(ctx), key).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model).Error
	if err != nil {
		return nil, translateError(err, entityCatalogItem, key.String())
	}
	return &model, nil
}

// ApplyDelta adds delta.Quantity to the counter with current_stock = current_stock + n.
// Incoming stock with a unit cost also moves the last and moving-average cost.
func (r *GormCatalogRepository) ApplyDelta(ctx context.Context, delta stock.Delta) (*stock.CatalogItem, error) {
	if err := r.ensure(ctx, delta.Key); err != nil {
		return nil, err
	}
	row, err := r.lock(ctx, delta.Key)
	if err != nil {
		return nil, err
	}

	now := r.now()
	updates := map[string]interface{}{
		"current_stock": gorm.Expr("current_stock + ?", delta.Quantity),
		"updated_at":    now,
	}
	if delta.UnitCost != nil && delta.Quantity > 0 {
		row.AverageCost = stock.MovingAverage(row.CurrentStock, row.AverageCost, delta.Quantity, *delta.UnitCost)
		row.LastUnitCost = delta.UnitCost.Round(4)
		updates["average_cost"] = row.AverageCost
		updates["last_unit_cost"] = row.LastUnitCost
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TireCatalogModel{}).
		Where("id = ?", row.ID).
		Updates(updates).Error; err != nil {
		return nil, classify(err)
	}
	// the row is locked, so the in-memory sum matches what was written
	row.CurrentStock += delta.Quantity
	row.UpdatedAt = now
	return row.ToDomain(), nil
}

// FindByKey returns the counter row for a key, nil if none exists
func (r *GormCatalogRepository) FindByKey(ctx context.Context, key asset.StockKey) (*stock.CatalogItem, error) {
	var rows []models.TireCatalogModel
	if err := whereKey(r.db.WithContext(ctx), key).Limit(1).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// FindByKeyForUpdate returns the counter row for a key locked until the transaction ends
func (r *GormCatalogRepository) FindByKeyForUpdate(ctx context.Context, key asset.StockKey) (*stock.CatalogItem, error) {
	var rows []models.TireCatalogModel
	if err := whereKey(r.db.WithContext(ctx), key).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// List returns all counter rows ordered by key
func (r *GormCatalogRepository) List(ctx context.Context) ([]stock.CatalogItem, error) {
	var rows []models.TireCatalogModel
	if err := r.db.WithContext(ctx).
		Order("size, brand, model, kind").
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	items := make([]stock.CatalogItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// SetCount overwrites the counter of a key, creating the row if needed
func (r *GormCatalogRepository) SetCount(ctx context.Context, key asset.StockKey, count int64) error {
	if err := r.ensure(ctx, key); err != nil {
		return err
	}
	err := whereKey(r.db.WithContext(ctx).Model(&models.TireCatalogModel{}), key).
		Updates(map[string]interface{}{
			"current_stock": count,
			"updated_at":    r.now(),
		}).Error
	return classify(err)
}

// SetThresholds updates the reorder settings of a key, creating the row if needed
func (r *GormCatalogRepository) SetThresholds(ctx context.Context, key asset.StockKey, t stock.Thresholds) (*stock.CatalogItem, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := r.ensure(ctx, key); err != nil {
		return nil, err
	}
	if err := whereKey(r.db.WithContext(ctx).Model(&models.TireCatalogModel{}), key).
		Updates(map[string]interface{}{
			"reorder_level":    t.ReorderLevel,
			"reorder_quantity": t.ReorderQuantity,
			"updated_at":       r.now(),
		}).Error; err != nil {
		return nil, classify(err)
	}
	return r.FindByKey(ctx, key)
}

var _ stock.CatalogRepository = (*GormCatalogRepository)(nil)
