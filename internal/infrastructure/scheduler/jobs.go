package scheduler

import (
	"context"
	"errors"
	"time"

	financeapp "github.com/tyrefleet/backend/internal/application/finance"
	stockapp "github.com/tyrefleet/backend/internal/application/stock"
	"github.com/tyrefleet/backend/internal/domain/asset"
	"go.uber.org/zap"
)

const balanceVerifyLockName = "finance:balance_verify"

// StockReconciler recomputes stock counters from tire rows
type StockReconciler interface {
	Reconcile(ctx context.Context, key *asset.StockKey) (*stockapp.ReconcileReport, error)
}

// BalanceVerifier compares supplier balances with their ledgers
type BalanceVerifier interface {
	VerifyAllSupplierBalances(ctx context.Context) ([]financeapp.BalanceResponse, error)
}

// StockReconcileJob runs a full reconcile. The service takes its own run lock;
// losing the lock to another instance counts as success.
func StockReconcileJob(r StockReconciler, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		report, err := r.Reconcile(ctx, nil)
		if err != nil {
			if isLockHeld(err) {
				logger.Info("stock reconcile skipped; another instance holds the lock")
				return nil
			}
			return err
		}
		logger.Info("scheduled stock reconcile done",
			zap.Int("keys_checked", report.KeysChecked),
			zap.Int("drifts", len(report.Drifts)))
		return nil
	}
}

// SupplierBalanceVerifyJob checks every supplier balance against its ledger under
// lock, when one is given. Mismatches are reported, not corrected.
func SupplierBalanceVerifyJob(v BalanceVerifier, lock stockapp.RunLock, ttl time.Duration, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		if lock != nil {
			release, err := lock.Obtain(ctx, balanceVerifyLockName, ttl)
			if errors.Is(err, stockapp.ErrLockNotObtained) {
				logger.Info("balance verification skipped; another instance holds the lock")
				return nil
			}
			if err != nil {
				return err
			}
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("failed to release balance verify lock", zap.Error(err))
				}
			}()
		}

		mismatches, err := v.VerifyAllSupplierBalances(ctx)
		if err != nil {
			return err
		}
		if len(mismatches) > 0 {
			logger.Error("supplier balances differ from ledger", zap.Int("suppliers", len(mismatches)))
		}
		return nil
	}
}

func isLockHeld(err error) bool {
	return errors.Is(err, stockapp.ErrLockNotObtained) || stockapp.IsReconcileInProgress(err)
}
