package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/shared"
)

const aggregateTypeTransaction = "AccountingTransaction"

// EntrySide is the debit or credit side of a journal entry
type EntrySide string

const (
	SideDebit  EntrySide = "DEBIT"
	SideCredit EntrySide = "CREDIT"
)

// IsValid checks if the side is DEBIT or CREDIT
func (s EntrySide) IsValid() bool {
	return s == SideDebit || s == SideCredit
}

// TransactionKind identifies the business event a transaction books
type TransactionKind string

const (
	KindPurchaseReceipt TransactionKind = "PURCHASE_RECEIPT"
	KindRetreadReceipt  TransactionKind = "RETREAD_RECEIPT"
	KindSupplierPayment TransactionKind = "SUPPLIER_PAYMENT"
)

// IsValid checks if the kind is known
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindPurchaseReceipt, KindRetreadReceipt, KindSupplierPayment:
		return true
	}
	return false
}

// EntryInput describes one journal line before it is bound to a transaction
type EntryInput struct {
	AccountCode string
	Side        EntrySide
	Amount      decimal.Decimal
	Memo        string
}

// JournalEntry is one debit or credit line of a transaction
type JournalEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	LineNo        int
	AccountCode   string
	Side          EntrySide
	Amount        decimal.Decimal
	Memo          string
}

// Source is the document a transaction was posted for
type Source struct {
	ID        *uuid.UUID
	Number    string
	OrderID   *uuid.UUID
	Reference string
}

// Transaction is a balanced set of journal entries. It is immutable once created.
type Transaction struct {
	ID                uuid.UUID
	TransactionNumber string
	Kind              TransactionKind
	SupplierID        uuid.UUID
	Source            Source
	Description       string
	Amount            decimal.Decimal
	PostedBy          uuid.UUID
	PostedAt          time.Time
	Entries           []JournalEntry
}

// NewTransaction builds a transaction and rejects it unless it has at least two entries,
// every amount is positive after rounding to 2 decimals and total debits equal total credits.
func NewTransaction(number string, kind TransactionKind, supplierID uuid.UUID, source Source, description string,
	postedBy uuid.UUID, at time.Time, entries []EntryInput) (*Transaction, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "transaction number cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown transaction kind "+string(kind))
	}
	if len(entries) < 2 {
		return nil, shared.NewValidationError(shared.CodeUnbalancedTransaction, "transaction needs at least two entries")
	}

	tx := &Transaction{
		ID:                uuid.New(),
		TransactionNumber: number,
		Kind:              kind,
		SupplierID:        supplierID,
		Source:            source,
		Description:       description,
		PostedBy:          postedBy,
		PostedAt:          at,
		Entries:           make([]JournalEntry, 0, len(entries)),
	}
	for i, in := range entries {
		if strings.TrimSpace(in.AccountCode) == "" {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "account code cannot be empty")
		}
		if !in.Side.IsValid() {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "entry side must be DEBIT or CREDIT")
		}
		amount := in.Amount.Round(2)
		if !amount.IsPositive() {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "entry amount must be positive")
		}
		tx.Entries = append(tx.Entries, JournalEntry{
			ID:            uuid.New(),
			TransactionID: tx.ID,
			LineNo:        i + 1,
			AccountCode:   in.AccountCode,
			Side:          in.Side,
			Amount:        amount,
			Memo:          in.Memo,
		})
	}

	debit, credit := tx.Totals()
	if !debit.Equal(credit) {
		return nil, shared.NewValidationError(shared.CodeUnbalancedTransaction, "debits do not equal credits").
			WithEntity(aggregateTypeTransaction, number).
			WithStates("debit="+debit.StringFixed(2), "credit="+credit.StringFixed(2))
	}
	tx.Amount = debit
	return tx, nil
}

// Totals returns the sum of debit and credit entries
func (t *Transaction) Totals() (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range t.Entries {
		if e.Side == SideDebit {
			debit = debit.Add(e.Amount)
		} else {
			credit = credit.Add(e.Amount)
		}
	}
	return debit, credit
}

// IsBalanced reports whether total debits equal total credits
func (t *Transaction) IsBalanced() bool {
	debit, credit := t.Totals()
	return debit.Equal(credit)
}

// Accounts are the chart-of-accounts codes receipts and payments post to
type Accounts struct {
	Inventory string
	Payable   string
	Cash      string
}

// Validate checks every account code is set
func (a Accounts) Validate() error {
	if a.Inventory == "" || a.Payable == "" || a.Cash == "" {
		return shared.NewValidationError(shared.CodeInvalidInput, "inventory, payable and cash accounts must be configured")
	}
	return nil
}

// ReceiptEntries debits inventory and credits accounts payable
func (a Accounts) ReceiptEntries(amount decimal.Decimal, memo string) []EntryInput {
	return []EntryInput{
		{AccountCode: a.Inventory, Side: SideDebit, Amount: amount, Memo: memo},
		{AccountCode: a.Payable, Side: SideCredit, Amount: amount, Memo: memo},
	}
}

// PaymentEntries debits accounts payable and credits cash
func (a Accounts) PaymentEntries(amount decimal.Decimal, memo string) []EntryInput {
	return []EntryInput{
		{AccountCode: a.Payable, Side: SideDebit, Amount: amount, Memo: memo},
		{AccountCode: a.Cash, Side: SideCredit, Amount: amount, Memo: memo},
	}
}
