package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tyrefleet/backend/internal/domain/retread"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	entityRetreadOrder     = "RetreadOrder"
	entityRetreadOrderItem = "RetreadOrderItem"
	entityRetreadReceipt   = "RetreadReceipt"
)

// GormRetreadOrderRepository implements retread.OrderRepository using GORM
type GormRetreadOrderRepository struct {
	db *gorm.DB
}

// NewGormRetreadOrderRepository creates a new GormRetreadOrderRepository
func NewGormRetreadOrderRepository(db *gorm.DB) *GormRetreadOrderRepository {
	return &GormRetreadOrderRepository{db: db}
}

func (r *GormRetreadOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*retread.Order, error) {
	var model models.RetreadOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entityRetreadOrder, id.String())
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the header, then the lines
func (r *GormRetreadOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*retread.Order, error) {
	var model models.RetreadOrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entityRetreadOrder, id.String())
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

func (r *GormRetreadOrderRepository) Create(ctx context.Context, order *retread.Order) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Items").Create(models.RetreadOrderModelFromDomain(order)).Error; err != nil {
		return classify(err)
	}
	for _, item := range order.Items {
		item.OrderID = order.ID
		if err := db.Create(models.RetreadOrderItemModelFromDomain(item)).Error; err != nil {
			return classify(err)
		}
	}
	return nil
}

// SaveWithLock writes the header and each line behind their own version checks.
// Lines are never added or removed after creation.
func (r *GormRetreadOrderRepository) SaveWithLock(ctx context.Context, order *retread.Order) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.RetreadOrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"status":     order.Status,
			"sent_by":    order.SentBy,
			"sent_at":    order.SentAt,
			"notes":      order.Notes,
			"version":    order.Version + 1,
			"updated_at": order.UpdatedAt,
		})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return concurrentModification(entityRetreadOrder, order.ID.String())
	}
	order.IncrementVersion()

	for _, item := range order.Items {
		res := db.Model(&models.RetreadOrderItemModel{}).
			Where("id = ? AND version = ?", item.ID, item.Version).
			Updates(map[string]interface{}{
				"outcome":          item.Outcome,
				"retread_cost":     item.RetreadCost,
				"result_tire_id":   item.ResultTireID,
				"rejection_reason": item.RejectionReason,
				"receipt_id":       item.ReceiptID,
				"version":          item.Version + 1,
				"updated_at":       item.UpdatedAt,
			})
		if res.Error != nil {
			return classify(res.Error)
		}
		if res.RowsAffected == 0 {
			return concurrentModification(entityRetreadOrderItem, item.ID.String())
		}
		item.Version++
	}
	return nil
}

// FindOpenItemByTire returns the pending line binding a tire on an open order
func (r *GormRetreadOrderRepository) FindOpenItemByTire(ctx context.Context, tireID uuid.UUID) (*retread.OrderItem, error) {
	var rows []models.RetreadOrderItemModel
	err := r.db.WithContext(ctx).
		Table("retread_order_items AS i").
		Select("i.*").
		Joins("JOIN retread_orders o ON o.id = i.order_id").
		Where("i.tire_id = ? AND i.outcome = ?", tireID, retread.OutcomePending).
		Where("o.status NOT IN ?", []retread.OrderStatus{
			retread.StatusCancelled, retread.StatusClosed, retread.StatusFullyReceived,
		}).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

var _ retread.OrderRepository = (*GormRetreadOrderRepository)(nil)

// GormRetreadReceiptRepository implements retread.ReceiptRepository using GORM
type GormRetreadReceiptRepository struct {
	db *gorm.DB
}

// NewGormRetreadReceiptRepository creates a new GormRetreadReceiptRepository
func NewGormRetreadReceiptRepository(db *gorm.DB) *GormRetreadReceiptRepository {
	return &GormRetreadReceiptRepository{db: db}
}

func (r *GormRetreadReceiptRepository) Create(ctx context.Context, receipt *retread.Receipt) error {
	model := models.RetreadReceiptModelFromDomain(receipt)
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

func (r *GormRetreadReceiptRepository) LinkTransaction(ctx context.Context, receiptID, transactionID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.RetreadReceiptModel{}).
		Where("id = ?", receiptID).
		Update("accounting_transaction_id", transactionID)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, entityRetreadReceipt, receiptID.String())
	}
	return nil
}

func (r *GormRetreadReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*retread.Receipt, error) {
	var model models.RetreadReceiptModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, entityRetreadReceipt, id.String())
	}
	return model.ToDomain(), nil
}

func (r *GormRetreadReceiptRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]retread.Receipt, error) {
	var rows []models.RetreadReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("received_at, receipt_number").
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]retread.Receipt, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

var _ retread.ReceiptRepository = (*GormRetreadReceiptRepository)(nil)
