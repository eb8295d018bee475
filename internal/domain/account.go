package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType represents the kind of account held at a bank
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCard     AccountType = "card"
)

// AccountNumberLength is the number of digits in every account number
const AccountNumberLength = 16

// Account represents a bank account owned by the user
type Account struct {
	ID            uuid.UUID
	Bank          string
	AccountType   AccountType
	Balance       decimal.Decimal
	AccountNumber string
	Currency      string
	ProductID     *uuid.UUID // Set only when the account exists to back a product
	ExternalID    string     // Backend identifier in the API-backed variant
}

// Validate ensures the account adheres to domain rules
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Bank) == "" {
		return validationErr("bank cannot be empty")
	}

	if a.Balance.IsNegative() {
		return validationErr("account balance cannot be negative")
	}

	if !IsAccountNumber(a.AccountNumber) {
		return validationErr("account number must have 16 digits")
	}

	if a.Currency == "" {
		return validationErr("currency cannot be empty")
	}

	return nil
}

// IsProductBacked reports whether the account only exists to back a product
func (a *Account) IsProductBacked() bool {
	return a.ProductID != nil
}

// FormattedNumber renders the account number in groups of four digits
func (a *Account) FormattedNumber() string {
	return FormatAccountNumber(a.AccountNumber)
}

// IsAccountNumber reports whether s is exactly 16 ASCII digits
func IsAccountNumber(s string) bool {
	if len(s) != AccountNumberLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FormatAccountNumber turns "4000123412341234" into "4000 1234 1234 1234".
// Malformed input is returned unchanged.
func FormatAccountNumber(number string) string {
	if !IsAccountNumber(number) {
		return number
	}
	var b strings.Builder
	for i := 0; i < len(number); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(number[i : i+4])
	}
	return b.String()
}
