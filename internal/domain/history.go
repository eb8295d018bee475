package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryKind classifies a history entry for display
type HistoryKind string

const (
	HistoryKindAccount  HistoryKind = "account"
	HistoryKindTransfer HistoryKind = "transfer"
	HistoryKindDeposit  HistoryKind = "deposit"
	HistoryKindProduct  HistoryKind = "product"
	HistoryKindPremium  HistoryKind = "premium"
)

// HistoryEntry is one append-only line of the transaction history.
// Amount is signed from the point of view of AccountNumber.
type HistoryEntry struct {
	ID            int64
	Date          time.Time
	Kind          HistoryKind
	Description   string
	AccountNumber string
	FromAccount   string
	ToAccount     string
	Amount        decimal.Decimal
	Bank          string
	Currency      string
}

// HistoryFilter selects a page of history, newest first
type HistoryFilter struct {
	AccountNumber string // Empty means all accounts
	Limit         int    // Zero or negative means no limit
	Offset        int
}

// Matches reports whether the entry passes the account filter
func (f HistoryFilter) Matches(e HistoryEntry) bool {
	if f.AccountNumber == "" {
		return true
	}
	return e.AccountNumber == f.AccountNumber ||
		e.FromAccount == f.AccountNumber ||
		e.ToAccount == f.AccountNumber
}
