package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/purchasing"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	entityPurchaseOrder     = "PurchaseOrder"
	entityPurchaseOrderItem = "PurchaseOrderItem"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order with its lines
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entityPurchaseOrder, id.String())
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the header row, then the line rows, in that order
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entityPurchaseOrder, id.String())
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", id).
		Order("created_at, id").
		Find(&model.Items).Error; err != nil {
		return nil, classify(err)
	}
	return model.ToDomain(), nil
}

// FindOrderIDByItem returns the order id owning a line
func (r *GormPurchaseOrderRepository) FindOrderIDByItem(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error) {
	var item models.PurchaseOrderItemModel
	if err := r.db.WithContext(ctx).
		Select("id", "order_id").
		First(&item, "id = ?", itemID).Error; err != nil {
		return uuid.Nil, translateError(err, entityPurchaseOrderItem, itemID.String())
	}
	return item.OrderID, nil
}

// Create inserts a new order with its lines
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *purchasing.PurchaseOrder) error {
	if err := r.db.WithContext(ctx).Omit("Items").Create(models.PurchaseOrderModelFromDomain(order)).Error; err != nil {
		return classify(err)
	}
	for _, item := range order.Items {
		item.OrderID = order.ID
		if err := r.db.WithContext(ctx).Create(models.PurchaseOrderItemModelFromDomain(item)).Error; err != nil {
			return classify(err)
		}
	}
	return nil
}

// SaveWithLock updates the header with a version check and synchronizes the lines.
// Existing lines are written with their own version check, so a line changed by a
// concurrent receipt fails with CONCURRENT_MODIFICATION instead of being overwritten.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *purchasing.PurchaseOrder) error {
	db := r.db.WithContext(ctx)

	result := db.Model(&models.PurchaseOrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":        order.Status,
			"expected_date": order.ExpectedDate,
			"approved_by":   order.ApprovedBy,
			"approved_at":   order.ApprovedAt,
			"notes":         order.Notes,
			"total_amount":  order.TotalAmount,
			"version":       order.Version + 1,
			"updated_at":    order.UpdatedAt,
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return concurrentModification(entityPurchaseOrder, order.ID.String())
	}
	order.IncrementVersion()

	var stored []models.PurchaseOrderItemModel
	if err := db.Select("id", "version").Where("order_id = ?", order.ID).Find(&stored).Error; err != nil {
		return classify(err)
	}
	existing := make(map[uuid.UUID]bool, len(stored))
	for _, s := range stored {
		existing[s.ID] = true
	}

	keep := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		keep = append(keep, item.ID)
		item.OrderID = order.ID
		if !existing[item.ID] {
			if err := db.Create(models.PurchaseOrderItemModelFromDomain(item)).Error; err != nil {
				return classify(err)
			}
			continue
		}
		if err := r.updateItem(db, item); err != nil {
			return err
		}
	}

	removed := db.Where("order_id = ?", order.ID)
	if len(keep) > 0 {
		removed = removed.Where("id NOT IN ?", keep)
	}
	if err := removed.Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return classify(err)
	}
	return nil
}

func (r *GormPurchaseOrderRepository) updateItem(db *gorm.DB, item *purchasing.PurchaseOrderItem) error {
	result := db.Model(&models.PurchaseOrderItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"quantity":          item.Quantity,
			"received_quantity": item.ReceivedQuantity,
			"unit_price":        item.UnitPrice,
			"version":           item.Version + 1,
			"updated_at":        item.UpdatedAt,
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return concurrentModification(entityPurchaseOrderItem, item.ID.String())
	}
	item.Version++
	return nil
}

// Delete removes an order and its lines
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.PurchaseOrderItemModel{}).Error; err != nil {
		return classify(err)
	}
	result := db.Delete(&models.PurchaseOrderModel{}, "id = ?", id)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, entityPurchaseOrder, id.String())
	}
	return nil
}

var _ purchasing.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)

// GormGoodsReceiptRepository implements GoodsReceiptRepository using GORM
type GormGoodsReceiptRepository struct {
	db *gorm.DB
}

// NewGormGoodsReceiptRepository creates a new GormGoodsReceiptRepository
func NewGormGoodsReceiptRepository(db *gorm.DB) *GormGoodsReceiptRepository {
	return &GormGoodsReceiptRepository{db: db}
}

// Create inserts a GRN with its items
func (r *GormGoodsReceiptRepository) Create(ctx context.Context, receipt *purchasing.GoodsReceipt) error {
	model, err := models.GoodsReceiptModelFromDomain(receipt)
	if err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if err := db.Omit("Items").Create(model).Error; err != nil {
		return classify(err)
	}
	for _, item := range model.Items {
		if err := db.Create(item).Error; err != nil {
			return classify(err)
		}
	}
	return nil
}

// LinkTransaction records the accounting transaction posted for a GRN
func (r *GormGoodsReceiptRepository) LinkTransaction(ctx context.Context, receiptID, transactionID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.GoodsReceiptModel{}).
		Where("id = ?", receiptID).
		Update("accounting_transaction_id", transactionID)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "GoodsReceipt", receiptID.String())
	}
	return nil
}

// FindByID finds a GRN with its items
func (r *GormGoodsReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.GoodsReceipt, error) {
	var model models.GoodsReceiptModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "GoodsReceipt", id.String())
	}
	return model.ToDomain(), nil
}

// ListByOrder lists the GRNs of a purchase order, oldest first
func (r *GormGoodsReceiptRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]purchasing.GoodsReceipt, error) {
	var rows []models.GoodsReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("purchase_order_id = ?", orderID).
		Order("received_at, receipt_number").
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]purchasing.GoodsReceipt, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountByOrder counts GRNs of a purchase order
func (r *GormGoodsReceiptRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.GoodsReceiptModel{}).
		Where("purchase_order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return 0, classify(err)
	}
	return count, nil
}

var _ purchasing.GoodsReceiptRepository = (*GormGoodsReceiptRepository)(nil)
