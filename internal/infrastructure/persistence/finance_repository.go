package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository stores accounting transactions with their journal entries
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create inserts the header and every entry. A second posting for the same
// (kind, source) hits idx_txn_source and fails as a constraint violation.
func (r *GormTransactionRepository) Create(ctx context.Context, tx *finance.Transaction) error {
	model := models.AccountingTransactionModelFromDomain(tx)
	db := r.db.WithContext(ctx)
	if err := db.Omit("Entries").Create(model).Error; err != nil {
		return classify(err)
	}
	for _, e := range model.Entries {
		if err := db.Create(e).Error; err != nil {
			return classify(err)
		}
	}
	return nil
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Transaction, error) {
	var model models.AccountingTransactionModel
	if err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "AccountingTransaction", id.String())
	}
	return model.ToDomain(), nil
}

func (r *GormTransactionRepository) ExistsForSource(ctx context.Context, kind finance.TransactionKind, sourceID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AccountingTransactionModel{}).
		Where("kind = ? AND source_id = ?", kind, sourceID).
		Count(&count).Error; err != nil {
		return false, classify(err)
	}
	return count > 0, nil
}

var _ finance.TransactionRepository = (*GormTransactionRepository)(nil)

// GormLedgerRepository stores supplier sub-ledger entries
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) Append(ctx context.Context, entry *finance.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(models.SupplierLedgerEntryModelFromDomain(entry)).Error; err != nil {
		return classify(err)
	}
	return nil
}

type ledgerSum struct {
	Total decimal.Decimal
	Count int64
}

// Sum returns the signed total of a supplier's entries: payments count negative
func (r *GormLedgerRepository) Sum(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, int64, error) {
	var out ledgerSum
	if err := r.db.WithContext(ctx).
		Model(&models.SupplierLedgerEntryModel{}).
		Select("COALESCE(SUM(CASE WHEN kind = ? THEN -amount ELSE amount END), 0) AS total, COUNT(*) AS count",
			finance.LedgerPayment).
		Where("supplier_id = ?", supplierID).
		Scan(&out).Error; err != nil {
		return decimal.Zero, 0, classify(err)
	}
	return out.Total.Round(2), out.Count, nil
}

// ListBySupplier returns the most recent entries first
func (r *GormLedgerRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, limit int) ([]finance.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []models.SupplierLedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("occurred_at DESC, id").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	entries := make([]finance.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

var _ finance.LedgerRepository = (*GormLedgerRepository)(nil)
