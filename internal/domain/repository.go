package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger defines the operations of the in-memory authority for accounts,
// products and history. Lookups never fail: they report presence with a bool.
type Ledger interface {
	// CreateAccount opens an account with a fresh unique 16-digit number
	CreateAccount(bank string, accountType AccountType, initialBalance decimal.Decimal, productID *uuid.UUID) (Account, error)

	// CloseAccount moves the full balance to the destination and removes the account
	CloseAccount(accountID, destinationAccountID uuid.UUID) error

	// GetAccountByID returns a copy of the account
	GetAccountByID(id uuid.UUID) (Account, bool)

	// GetAccountByNumber returns a copy of the account with the given number
	GetAccountByNumber(number string) (Account, bool)

	// ListAccounts returns copies of all active accounts
	ListAccounts() []Account

	// GetProduct returns a copy of the product
	GetProduct(id uuid.UUID) (Product, bool)

	// ListProducts returns copies of all products
	ListProducts() []Product

	// Commit validates and applies a change atomically: either every part is
	// applied or none is
	Commit(change Change) error

	// RecordTransaction appends a history entry and returns it with its assigned ID
	RecordTransaction(entry HistoryEntry) HistoryEntry

	// History returns one page of history, newest first, and the total match count
	History(filter HistoryFilter) ([]HistoryEntry, int)
}

// Change is a unit of ledger mutation applied by Ledger.Commit
type Change struct {
	Posting        *Posting
	AddAccounts    []Account
	RemoveAccounts []uuid.UUID
	AddProducts    []Product
	RemoveProducts []uuid.UUID
	History        []HistoryEntry
}

// PremiumFlagRepository persists whether premium was ever purchased
type PremiumFlagRepository interface {
	// IsPremiumPurchased reports whether the first purchase already happened
	IsPremiumPurchased(ctx context.Context) (bool, error)

	// MarkPremiumPurchased records the first purchase. It reports true only
	// for the call that stored the flag; later calls report false.
	MarkPremiumPurchased(ctx context.Context) (bool, error)
}
