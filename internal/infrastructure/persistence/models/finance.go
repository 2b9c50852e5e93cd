package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tyrefleet/backend/internal/domain/finance"
)

// AccountingTransactionModel is the header of a balanced accounting transaction
type AccountingTransactionModel struct {
	ID                uuid.UUID               `gorm:"type:uuid;primary_key"`
	TransactionNumber string                  `gorm:"type:varchar(50);not null;uniqueIndex"`
	Kind              finance.TransactionKind `gorm:"type:varchar(30);not null;uniqueIndex:idx_txn_source,priority:1"`
	SupplierID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	SourceID          *uuid.UUID              `gorm:"type:uuid;uniqueIndex:idx_txn_source,priority:2"`
	SourceNumber      string                  `gorm:"type:varchar(50)"`
	SourceOrderID     *uuid.UUID              `gorm:"type:uuid"`
	SourceReference   string                  `gorm:"type:varchar(100)"`
	Description       string                  `gorm:"type:varchar(500)"`
	Amount            decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	PostedBy          uuid.UUID               `gorm:"type:uuid;not null"`
	PostedAt          time.Time               `gorm:"not null;index"`
	Entries           []*JournalEntryModel    `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (AccountingTransactionModel) TableName() string {
	return "accounting_transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *AccountingTransactionModel) ToDomain() *finance.Transaction {
	entries := make([]finance.JournalEntry, len(m.Entries))
	for i, e := range m.Entries {
		entries[i] = finance.JournalEntry{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			LineNo:        e.LineNo,
			AccountCode:   e.AccountCode,
			Side:          e.Side,
			Amount:        e.Amount,
			Memo:          e.Memo,
		}
	}
	return &finance.Transaction{
		ID:                m.ID,
		TransactionNumber: m.TransactionNumber,
		Kind:              m.Kind,
		SupplierID:        m.SupplierID,
		Source: finance.Source{
			ID:        m.SourceID,
			Number:    m.SourceNumber,
			OrderID:   m.SourceOrderID,
			Reference: m.SourceReference,
		},
		Description: m.Description,
		Amount:      m.Amount,
		PostedBy:    m.PostedBy,
		PostedAt:    m.PostedAt,
		Entries:     entries,
	}
}

// AccountingTransactionModelFromDomain creates the persistence model of a transaction and its entries
func AccountingTransactionModelFromDomain(t *finance.Transaction) *AccountingTransactionModel {
	m := &AccountingTransactionModel{
		ID:                t.ID,
		TransactionNumber: t.TransactionNumber,
		Kind:              t.Kind,
		SupplierID:        t.SupplierID,
		SourceID:          t.Source.ID,
		SourceNumber:      t.Source.Number,
		SourceOrderID:     t.Source.OrderID,
		SourceReference:   t.Source.Reference,
		Description:       t.Description,
		Amount:            t.Amount,
		PostedBy:          t.PostedBy,
		PostedAt:          t.PostedAt,
		Entries:           make([]*JournalEntryModel, len(t.Entries)),
	}
	for i, e := range t.Entries {
		m.Entries[i] = &JournalEntryModel{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			LineNo:        e.LineNo,
			AccountCode:   e.AccountCode,
			Side:          e.Side,
			Amount:        e.Amount,
			Memo:          e.Memo,
		}
	}
	return m
}

// JournalEntryModel is one debit or credit line
type JournalEntryModel struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key"`
	TransactionID uuid.UUID         `gorm:"type:uuid;not null;index"`
	LineNo        int               `gorm:"not null"`
	AccountCode   string            `gorm:"type:varchar(20);not null;index"`
	Side          finance.EntrySide `gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Memo          string            `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (JournalEntryModel) TableName() string {
	return "journal_entries"
}

// SupplierLedgerEntryModel is one immutable supplier sub-ledger row
type SupplierLedgerEntryModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	SupplierID    uuid.UUID               `gorm:"type:uuid;not null;index:idx_ledger_supplier_time,priority:1"`
	Kind          finance.LedgerEntryKind `gorm:"type:varchar(30);not null"`
	Amount        decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	BalanceAfter  decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	TransactionID uuid.UUID               `gorm:"type:uuid;not null;index"`
	Reference     string                  `gorm:"type:varchar(100)"`
	ActorID       uuid.UUID               `gorm:"type:uuid;not null"`
	OccurredAt    time.Time               `gorm:"not null;index:idx_ledger_supplier_time,priority:2"`
}

// TableName returns the table name for GORM
func (SupplierLedgerEntryModel) TableName() string {
	return "supplier_ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *SupplierLedgerEntryModel) ToDomain() *finance.LedgerEntry {
	return &finance.LedgerEntry{
		ID:            m.ID,
		SupplierID:    m.SupplierID,
		Kind:          m.Kind,
		Amount:        m.Amount,
		BalanceAfter:  m.BalanceAfter,
		TransactionID: m.TransactionID,
		Reference:     m.Reference,
		ActorID:       m.ActorID,
		OccurredAt:    m.OccurredAt,
	}
}

// SupplierLedgerEntryModelFromDomain creates a persistence model from a domain LedgerEntry
func SupplierLedgerEntryModelFromDomain(e *finance.LedgerEntry) *SupplierLedgerEntryModel {
	return &SupplierLedgerEntryModel{
		ID:            e.ID,
		SupplierID:    e.SupplierID,
		Kind:          e.Kind,
		Amount:        e.Amount,
		BalanceAfter:  e.BalanceAfter,
		TransactionID: e.TransactionID,
		Reference:     e.Reference,
		ActorID:       e.ActorID,
		OccurredAt:    e.OccurredAt,
	}
}
