package persistence

import (
	"context"
	"time"

	"github.com/tyrefleet/backend/internal/application/txscope"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/purchasing"
	"github.com/tyrefleet/backend/internal/domain/retread"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/domain/stock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormTransactionScope implements txscope.Scope using GORM transactions.
// Every repository handed to fn shares the same *gorm.DB transaction.
type GormTransactionScope struct {
	db          *gorm.DB
	sequences   shared.SequenceGenerator
	maxAttempts int
	backoff     time.Duration
	logger      *zap.Logger
}

// ScopeOption configures a GormTransactionScope
type ScopeOption func(*GormTransactionScope)

// WithSequenceGenerator replaces the table-backed document numbering. The generator
// runs outside the transaction, so a rollback leaves a gap in the series.
func WithSequenceGenerator(g shared.SequenceGenerator) ScopeOption {
	return func(s *GormTransactionScope) {
		s.sequences = g
	}
}

// WithRetry re-runs fn when it fails with a retryable error, up to attempts times in total
func WithRetry(attempts int, backoff time.Duration) ScopeOption {
	return func(s *GormTransactionScope) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
		s.backoff = backoff
	}
}

// WithScopeLogger sets the logger used to report retried transactions
func WithScopeLogger(logger *zap.Logger) ScopeOption {
	return func(s *GormTransactionScope) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, opts ...ScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db, maxAttempts: 1, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs fn within a database transaction. An error from fn rolls the
// transaction back; storage errors come back as classified DomainErrors.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos txscope.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(ctx, &gormRepositories{tx: tx, sequences: s.sequences})
		})
		err = classify(err)
		if err == nil || !shared.IsRetryable(err) || attempt == s.maxAttempts {
			return err
		}
		s.logger.Warn("retrying transaction",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if s.backoff > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(s.backoff * time.Duration(attempt)):
			}
		}
	}
	return err
}

type gormRepositories struct {
	tx        *gorm.DB
	sequences shared.SequenceGenerator
}

func (r *gormRepositories) Tires() asset.TireRepository {
	return NewGormTireRepository(r.tx)
}

func (r *gormRepositories) Movements() asset.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *gormRepositories) Catalog() stock.CatalogRepository {
	return NewGormCatalogRepository(r.tx)
}

func (r *gormRepositories) PurchaseOrders() purchasing.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormRepositories) GoodsReceipts() purchasing.GoodsReceiptRepository {
	return NewGormGoodsReceiptRepository(r.tx)
}

func (r *gormRepositories) RetreadOrders() retread.OrderRepository {
	return NewGormRetreadOrderRepository(r.tx)
}

func (r *gormRepositories) RetreadReceipts() retread.ReceiptRepository {
	return NewGormRetreadReceiptRepository(r.tx)
}

func (r *gormRepositories) Transactions() finance.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

func (r *gormRepositories) Ledger() finance.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

func (r *gormRepositories) Suppliers() partner.SupplierRepository {
	return NewGormSupplierRepository(r.tx)
}

func (r *gormRepositories) Sequences() shared.SequenceGenerator {
	if r.sequences != nil {
		return r.sequences
	}
	return NewGormSequenceGenerator(r.tx)
}

var _ txscope.Scope = (*GormTransactionScope)(nil)

var _ txscope.Repositories = (*gormRepositories)(nil)
