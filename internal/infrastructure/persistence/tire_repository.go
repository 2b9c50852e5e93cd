package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityTire = "Tire"

// GormTireRepository implements TireRepository using GORM
type GormTireRepository struct {
	db *gorm.DB
}

// NewGormTireRepository creates a new GormTireRepository
func NewGormTireRepository(db *gorm.DB) *GormTireRepository {
	return &GormTireRepository{db: db}
}

// FindByID finds a tire by ID
func (r *GormTireRepository) FindByID(ctx context.Context, id uuid.UUID) (*asset.Tire, error) {
	var model models.TireModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entityTire, id.String())
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a tire and locks its row (SELECT ... FOR UPDATE)
func (r *GormTireRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*asset.Tire, error) {
	var model models.TireModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entityTire, id.String())
	}
	return model.ToDomain(), nil
}

// FindBySerial finds a tire by serial number
func (r *GormTireRepository) FindBySerial(ctx context.Context, serial string) (*asset.Tire, error) {
	var model models.TireModel
	if err := r.db.WithContext(ctx).First(&model, "serial_number = ?", serial).Error; err != nil {
		return nil, translateError(err, entityTire, serial)
	}
	return model.ToDomain(), nil
}

// ExistsBySerials returns the subset of serials already in use
func (r *GormTireRepository) ExistsBySerials(ctx context.Context, serials []string) ([]string, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&models.TireModel{}).
		Where("serial_number IN ?", serials).
		Order("serial_number").
		Pluck("serial_number", &found).Error; err != nil {
		return nil, classify(err)
	}
	return found, nil
}

// Create inserts a new tire
func (r *GormTireRepository) Create(ctx context.Context, tire *asset.Tire) error {
	if err := r.db.WithContext(ctx).Create(models.TireModelFromDomain(tire)).Error; err != nil {
		return classify(err)
	}
	return nil
}

// Update persists a tire with optimistic locking: the row is only written if its
// version is still the one the tire was loaded with
func (r *GormTireRepository) Update(ctx context.Context, tire *asset.Tire) error {
	m := models.TireModelFromDomain(tire)
	result := r.db.WithContext(ctx).
		Model(&models.TireModel{}).
		Where("id = ? AND version = ?", tire.ID, tire.Version).
		Updates(map[string]interface{}{
			"status":                 m.Status,
			"cost_basis":             m.CostBasis,
			"retread_count":          m.RetreadCount,
			"disposal_method":        m.DisposalMethod,
			"disposal_reason":        m.DisposalReason,
			"disposal_authorized_by": m.DisposalAuthorizer,
			"disposed_at":            m.DisposedAt,
			"assignment_id":          m.AssignmentID,
			"vehicle_id":             m.VehicleID,
			"position_id":            m.PositionID,
			"mount_odometer":         m.MountOdometer,
			"mounted_at":             m.MountedAt,
			"superseded_by_id":       m.SupersededByID,
			"superseded_at":          m.SupersededAt,
			"version":                tire.Version + 1,
			"updated_at":             tire.UpdatedAt,
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return concurrentModification(entityTire, tire.ID.String())
	}
	tire.IncrementVersion()
	return nil
}

// CountByPurchaseLine counts tires produced by a purchase order line
func (r *GormTireRepository) CountByPurchaseLine(ctx context.Context, lineID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TireModel{}).
		Where("source_purchase_line_id = ?", lineID).
		Count(&count).Error; err != nil {
		return 0, classify(err)
	}
	return count, nil
}

type stockKeyCount struct {
	Size  string
	Brand string
	Model string
	Kind  asset.TireKind
	Count int64
}

// CountInStockByKey counts IN_STORE and USED_STORE tires grouped by stock key
func (r *GormTireRepository) CountInStockByKey(ctx context.Context, key *asset.StockKey) (map[asset.StockKey]int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.TireModel{}).
		Select("size, brand, model, kind, COUNT(*) AS count").
		Where("status IN ?", []asset.TireStatus{asset.StatusInStore, asset.StatusUsedStore}).
		Where("superseded_by_id IS NULL")
	if key != nil {
		query = query.Where("size = ? AND brand = ? AND model = ? AND kind = ?", key.Size, key.Brand, key.Model, key.Kind)
	}
	var rows []stockKeyCount
	if err := query.Group("size, brand, model, kind").Scan(&rows).Error; err != nil {
		return nil, classify(err)
	}
	counts := make(map[asset.StockKey]int64, len(rows))
	for _, row := range rows {
		counts[asset.StockKey{Size: row.Size, Brand: row.Brand, Model: row.Model, Kind: row.Kind}] = row.Count
	}
	return counts, nil
}

// List returns tires matching the filter, newest first
func (r *GormTireRepository) List(ctx context.Context, filter asset.TireFilter) ([]asset.Tire, error) {
	query := r.db.WithContext(ctx).Model(&models.TireModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if k := filter.Key; k != nil {
		query = query.Where("size = ? AND brand = ? AND model = ? AND kind = ?", k.Size, k.Brand, k.Model, k.Kind)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.TireModel
	if err := query.Order("created_at DESC, id").Offset(filter.Offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	tires := make([]asset.Tire, len(rows))
	for i := range rows {
		tires[i] = *rows[i].ToDomain()
	}
	return tires, nil
}

var _ asset.TireRepository = (*GormTireRepository)(nil)

// GormMovementRepository implements the append-only MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts a movement. A duplicate (tire_id, sequence) fails on the unique index.
func (r *GormMovementRepository) Append(ctx context.Context, m *asset.Movement) error {
	if err := r.db.WithContext(ctx).Create(models.TireMovementModelFromDomain(m)).Error; err != nil {
		return classify(err)
	}
	return nil
}

// Last returns the most recent movement of a tire, nil if it has none
func (r *GormMovementRepository) Last(ctx context.Context, tireID uuid.UUID) (*asset.Movement, error) {
	var rows []models.TireMovementModel
	if err := r.db.WithContext(ctx).
		Where("tire_id = ?", tireID).
		Order("sequence DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// ListAfter returns up to limit movements with sequence > afterSeq in ascending order
func (r *GormMovementRepository) ListAfter(ctx context.Context, tireID uuid.UUID, afterSeq int64, limit int) ([]asset.Movement, error) {
	var rows []models.TireMovementModel
	if err := r.db.WithContext(ctx).
		Where("tire_id = ? AND sequence > ?", tireID, afterSeq).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]asset.Movement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountByTire counts movements of a tire
func (r *GormMovementRepository) CountByTire(ctx context.Context, tireID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TireMovementModel{}).
		Where("tire_id = ?", tireID).
		Count(&count).Error; err != nil {
		return 0, classify(err)
	}
	return count, nil
}

var _ asset.MovementRepository = (*GormMovementRepository)(nil)
