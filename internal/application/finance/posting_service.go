package finance

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/application/txscope"
	"github.com/tyrefleet/backend/internal/domain/finance"
	"github.com/tyrefleet/backend/internal/domain/identity"
	"github.com/tyrefleet/backend/internal/domain/partner"
	"github.com/tyrefleet/backend/internal/domain/shared"
	"github.com/tyrefleet/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const entityTypeSupplier = "Supplier"

// PostingService books receipts and payments as balanced accounting transactions
// and keeps the supplier sub-ledger in step with the supplier balance.
type PostingService struct {
	scope     txscope.Scope
	ledger    finance.LedgerRepository
	suppliers partner.SupplierRepository
	actors    identity.ActorResolver
	accounts  finance.Accounts
	clock     shared.Clock
	metrics   *telemetry.LifecycleMetrics
	logger    *zap.Logger
}

// NewPostingService creates a PostingService. ledger and suppliers are the
// non-transactional repositories used by the balance checks.
func NewPostingService(
	scope txscope.Scope,
	ledger finance.LedgerRepository,
	suppliers partner.SupplierRepository,
	actors identity.ActorResolver,
	accounts finance.Accounts,
	clock shared.Clock,
	logger *zap.Logger,
) (*PostingService, error) {
	if err := accounts.Validate(); err != nil {
		return nil, err
	}
	return &PostingService{
		scope:     scope,
		ledger:    ledger,
		suppliers: suppliers,
		actors:    actors,
		accounts:  accounts,
		clock:     clock,
		logger:    logger,
	}, nil
}

// SetMetrics sets the lifecycle metrics collector
func (s *PostingService) SetMetrics(m *telemetry.LifecycleMetrics) {
	s.metrics = m
}

// Post books a receipt inside the caller's transaction: one transaction with a debit to
// inventory and a credit to payables, the supplier balance raised by a relative update
// and a ledger entry carrying the balance after posting.
func (s *PostingService) Post(ctx context.Context, repos txscope.Repositories, ev finance.ReceiptEvent) (*finance.Transaction, decimal.Decimal, error) {
	ev, err := ev.Normalize()
	if err != nil {
		return nil, decimal.Zero, err
	}
	if ev.ActorID == uuid.Nil {
		return nil, decimal.Zero, shared.NewValidationError(shared.CodeInvalidInput, "posting actor is required")
	}
	// a receipt id is posted once, whichever kind it was booked under
	for _, k := range []finance.ReceiptKind{finance.ReceiptKindPurchase, finance.ReceiptKindRetread} {
		posted, err := repos.Transactions().ExistsForSource(ctx, k.TransactionKind(), ev.ReceiptID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if posted {
			return nil, decimal.Zero, alreadyPosted(ev.ReceiptID)
		}
	}
	if _, err := repos.Suppliers().FindByID(ctx, ev.SupplierID); err != nil {
		return nil, decimal.Zero, err
	}

	at := ev.OccurredAt
	if at.IsZero() {
		at = s.clock.Now()
	}
	number, err := repos.Sequences().Next(ctx, shared.PrefixTransaction, at)
	if err != nil {
		return nil, decimal.Zero, err
	}
	kind := ev.Kind.TransactionKind()
	memo := string(ev.Kind) + " " + ev.ReceiptNumber
	tx, err := finance.NewTransaction(number, kind, ev.SupplierID, ev.Source(), memo, ev.ActorID, at,
		s.accounts.ReceiptEntries(ev.Amount, memo))
	if err != nil {
		return nil, decimal.Zero, err
	}
	balance, err := s.book(ctx, repos, tx, ev.Kind.LedgerKind(), ev.ReceiptNumber)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if s.metrics != nil {
		s.metrics.RecordPosting(ctx, string(kind), tx.Amount)
	}
	return tx, balance, nil
}

// PostReceiptFinancials posts a stored receipt that its workflow left unposted, in its
// own transaction. Supplier, amount and numbers come from the stored GRN or RRN; the
// actor needs finance:post. The new transaction is linked back to the receipt.
func (s *PostingService) PostReceiptFinancials(ctx context.Context, ev finance.ReceiptEvent) (_ *PostingResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "finance", "PostReceiptFinancials")
	telemetry.SetAttributes(span, telemetry.SpanAttrReceiptID, ev.ReceiptID.String(),
		telemetry.SpanAttrActorID, ev.ActorID.String())
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorize(ctx, ev.ActorID, identity.CapPostReceipt); err != nil {
		return nil, err
	}

	var resp PostingResponse
	err = s.scope.Execute(ctx, func(ctx context.Context, repos txscope.Repositories) error {
		stored, link, err := s.storedReceipt(ctx, repos, ev)
		if err != nil {
			return err
		}
		tx, balance, err := s.Post(ctx, repos, stored)
		if err != nil {
			return err
		}
		if err := link(ctx, stored.ReceiptID, tx.ID); err != nil {
			return err
		}
		resp = toPostingResponse(tx, balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("receipt posted",
		zap.String("transaction_number", resp.TransactionNumber),
		zap.String("receipt_id", ev.ReceiptID.String()),
		zap.String("supplier_id", resp.SupplierID.String()),
		zap.String("amount", resp.Amount.StringFixed(2)))
	return &resp, nil
}

type linkFunc func(ctx context.Context, receiptID, transactionID uuid.UUID) error

// storedReceipt replaces the caller's event with the receipt as it is stored. A supplier
// or amount given by the caller must agree with the stored receipt.
func (s *PostingService) storedReceipt(ctx context.Context, repos txscope.Repositories, ev finance.ReceiptEvent) (finance.ReceiptEvent, linkFunc, error) {
	out := finance.ReceiptEvent{Kind: ev.Kind, ReceiptID: ev.ReceiptID, ActorID: ev.ActorID, OccurredAt: ev.OccurredAt}
	var (
		linked *uuid.UUID
		link   linkFunc
	)
	switch ev.Kind {
	case finance.ReceiptKindPurchase:
		grn, err := repos.GoodsReceipts().FindByID(ctx, ev.ReceiptID)
		if err != nil {
			return out, nil, err
		}
		out.SupplierID, out.Amount = grn.SupplierID, grn.TotalCost
		out.ReceiptNumber, out.OrderID = grn.ReceiptNumber, grn.PurchaseOrderID
		linked, link = grn.AccountingTransactionID, repos.GoodsReceipts().LinkTransaction
	case finance.ReceiptKindRetread:
		rrn, err := repos.RetreadReceipts().FindByID(ctx, ev.ReceiptID)
		if err != nil {
			return out, nil, err
		}
		out.SupplierID, out.Amount = rrn.SupplierID, rrn.TotalCost
		out.ReceiptNumber, out.OrderID = rrn.ReceiptNumber, rrn.OrderID
		linked, link = rrn.AccountingTransactionID, repos.RetreadReceipts().LinkTransaction
	default:
		return out, nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown receipt kind "+string(ev.Kind))
	}
	if linked != nil {
		return out, nil, alreadyPosted(ev.ReceiptID)
	}
	if ev.SupplierID != uuid.Nil && ev.SupplierID != out.SupplierID {
		return out, nil, shared.NewValidationError(shared.CodeInvalidInput, "supplier does not match the stored receipt")
	}
	if !ev.Amount.IsZero() && !ev.Amount.Round(2).Equal(out.Amount.Round(2)) {
		return out, nil, shared.NewValidationError(shared.CodeInvalidInput, "amount does not match the stored receipt")
	}
	return out, link, nil
}

func alreadyPosted(receiptID uuid.UUID) error {
	return shared.NewStateConflictError("Receipt", receiptID.String(), "POSTED", "POST",
		"receipt already has an accounting transaction")
}

// authorize resolves the actor and checks one capability
func (s *PostingService) authorize(ctx context.Context, actorID uuid.UUID, capability identity.Capability) error {
	actor, err := s.actors.Resolve(ctx, actorID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return shared.NewAuthorizationError(actorID.String(), string(capability), "unknown actor")
		}
		return err
	}
	return actor.Require(capability)
}

// RecordSupplierPayment books money paid to a supplier. The actor needs supplier:pay.
// A payment larger than the outstanding balance is rejected.
func (s *PostingService) RecordSupplierPayment(ctx context.Context, supplierID, actorID uuid.UUID, req SupplierPaymentRequest) (_ *PostingResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "finance", "RecordSupplierPayment")
	telemetry.SetAttributes(span, telemetry.SpanAttrSupplierID, supplierID.String(), telemetry.SpanAttrActorID, actorID.String())
	defer func() { telemetry.EndSpan(span, err) }()

	if err := s.authorize(ctx, actorID, identity.CapPaySupplier); err != nil {
		return nil, err
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "payment amount must be positive")
	}
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "payment reference cannot be empty")
	}

	var resp PostingResponse
	err = s.scope.Execute(ctx, func(ctx context.Context, repos txscope.Repositories) error {
		supplier, err := repos.Suppliers().FindByIDForUpdate(ctx, supplierID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(supplier.Balance) {
			return shared.NewStateConflictError(entityTypeSupplier, supplierID.String(),
				"balance="+supplier.Balance.StringFixed(2), "pay="+amount.StringFixed(2),
				"payment exceeds outstanding balance")
		}
		at := s.clock.Now()
		number, err := repos.Sequences().Next(ctx, shared.PrefixTransaction, at)
		if err != nil {
			return err
		}
		memo := "payment " + reference
		tx, err := finance.NewTransaction(number, finance.KindSupplierPayment, supplierID,
			finance.Source{Reference: reference}, memo, actorID, at, s.accounts.PaymentEntries(amount, memo))
		if err != nil {
			return err
		}
		balance, err := s.book(ctx, repos, tx, finance.LedgerPayment, reference)
		if err != nil {
			return err
		}
		if balance.IsNegative() {
			return shared.NewStateConflictError(entityTypeSupplier, supplierID.String(),
				"balance="+balance.Add(amount).StringFixed(2), "pay="+amount.StringFixed(2),
				"payment exceeds outstanding balance")
		}
		resp = toPostingResponse(tx, balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordPosting(ctx, string(finance.KindSupplierPayment), amount)
	}
	s.logger.Info("supplier payment recorded",
		zap.String("transaction_number", resp.TransactionNumber),
		zap.String("supplier_id", supplierID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance_after", resp.BalanceAfter.StringFixed(2)))
	return &resp, nil
}

// VerifySupplierBalance compares a supplier's balance with the signed sum of its ledger
func (s *PostingService) VerifySupplierBalance(ctx context.Context, supplierID uuid.UUID) (*BalanceResponse, error) {
	check, err := s.check(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	resp := ToBalanceResponse(*check)
	return &resp, nil
}

// VerifyAllSupplierBalances checks every supplier and returns the inconsistent ones
func (s *PostingService) VerifyAllSupplierBalances(ctx context.Context) ([]BalanceResponse, error) {
	mismatches := make([]BalanceResponse, 0)
	filter := shared.Filter{Page: 1, PageSize: 100}
	for {
		page, total, err := s.suppliers.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for i := range page {
			check, err := s.check(ctx, page[i].ID)
			if err != nil {
				return nil, err
			}
			if !check.IsConsistent() {
				s.logger.Warn("supplier balance differs from ledger",
					zap.String("supplier_id", check.SupplierID.String()),
					zap.String("balance", check.Balance.StringFixed(2)),
					zap.String("ledger_sum", check.LedgerSum.StringFixed(2)))
				mismatches = append(mismatches, ToBalanceResponse(*check))
			}
		}
		if len(page) == 0 || int64(filter.Page*filter.PageSize) >= total {
			return mismatches, nil
		}
		filter.Page++
	}
}

func (s *PostingService) check(ctx context.Context, supplierID uuid.UUID) (*finance.BalanceCheck, error) {
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	sum, count, err := s.ledger.Sum(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return &finance.BalanceCheck{
		SupplierID: supplierID,
		Balance:    supplier.Balance,
		LedgerSum:  sum,
		Entries:    count,
	}, nil
}

// book stores the transaction, moves the supplier balance and appends the ledger entry
func (s *PostingService) book(ctx context.Context, repos txscope.Repositories, tx *finance.Transaction,
	kind finance.LedgerEntryKind, reference string) (decimal.Decimal, error) {
	if err := repos.Transactions().Create(ctx, tx); err != nil {
		return decimal.Zero, err
	}
	delta := tx.Amount.Mul(decimal.NewFromInt(kind.Sign()))
	balance, err := repos.Suppliers().AdjustBalance(ctx, tx.SupplierID, delta)
	if err != nil {
		return decimal.Zero, err
	}
	if err := repos.Ledger().Append(ctx, finance.NewLedgerEntry(tx, kind, balance, reference)); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
