package shared

import (
	"context"
	"fmt"
	"time"
)

// DocumentPrefix identifies a numbered document series
type DocumentPrefix string

const (
	PrefixPurchaseOrder  DocumentPrefix = "PO"
	PrefixGoodsReceipt   DocumentPrefix = "GRN"
	PrefixRetreadOrder   DocumentPrefix = "RTO"
	PrefixRetreadReceipt DocumentPrefix = "RRN"
	PrefixTransaction    DocumentPrefix = "TXN"
)

// SequenceGenerator hands out document numbers. Implementations must never return
// the same number twice for a prefix and period, even under concurrent callers.
type SequenceGenerator interface {
	// Next returns the next document number for the prefix in the period containing at
	Next(ctx context.Context, prefix DocumentPrefix, at time.Time) (string, error)
}

// SequencePeriod returns the YYYYMM period key a timestamp falls into
func SequencePeriod(at time.Time) string {
	return at.UTC().Format("200601")
}

// FormatDocumentNumber renders PREFIX + YYYY + MM + zero-padded sequence
func FormatDocumentNumber(prefix DocumentPrefix, at time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%04d", prefix, SequencePeriod(at), seq)
}
