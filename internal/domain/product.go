package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType represents the kind of financial product
type ProductType string

const (
	ProductTypeDeposit ProductType = "deposit"
	ProductTypeCard    ProductType = "card"
	ProductTypeLoan    ProductType = "loan"
	ProductTypeCredit  ProductType = "credit"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusPending  ProductStatus = "PENDING"
	ProductStatusClosed   ProductStatus = "CLOSED"
)

// IsLending reports whether the product is a debt the user owes (loan or credit)
func (t ProductType) IsLending() bool {
	return t == ProductTypeLoan || t == ProductTypeCredit
}

// DisplayName returns the human label for the product type
func (t ProductType) DisplayName() string {
	switch t {
	case ProductTypeDeposit:
		return "Deposit"
	case ProductTypeCard:
		return "Card"
	case ProductTypeLoan:
		return "Loan"
	case ProductTypeCredit:
		return "Credit"
	default:
		return string(t)
	}
}

// Product represents a financial instrument owned by the user.
// Amount is the principal for deposits and the outstanding debt for loans.
type Product struct {
	ID              uuid.UUID
	CatalogID       string
	Type            ProductType
	Name            string
	Amount          decimal.Decimal
	Rate            decimal.Decimal
	Status          ProductStatus
	Bank            string
	TermMonths      int
	LinkedAccountID *uuid.UUID
	SourceAccountID *uuid.UUID
	ExternalID      string // Backend agreement or card identifier in the API-backed variant
}

// Validate ensures the product adheres to domain rules
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return validationErr("product name cannot be empty")
	}

	switch p.Type {
	case ProductTypeCard:
		// Cards never carry a balance of their own
		if !p.Amount.IsZero() {
			return validationErr("card product must have zero amount")
		}
		if p.LinkedAccountID == nil {
			return validationErr("card product must be linked to an account")
		}
	case ProductTypeDeposit, ProductTypeLoan, ProductTypeCredit:
		if p.Amount.LessThanOrEqual(decimal.Zero) {
			return validationErr("product principal must be positive")
		}
	default:
		return validationErr("unknown product type " + string(p.Type))
	}

	switch p.Status {
	case ProductStatusActive, ProductStatusInactive, ProductStatusPending, ProductStatusClosed:
	default:
		return validationErr("unknown product status " + string(p.Status))
	}

	return nil
}

// CatalogEntry is a product offered for purchase
type CatalogEntry struct {
	ID         string
	Type       ProductType
	Name       string
	Bank       string
	Rate       decimal.Decimal
	TermMonths int
	MinAmount  decimal.Decimal
	MaxAmount  decimal.Decimal // Zero means unbounded
}

// CheckAmount validates a purchase amount against the catalog bounds
func (c *CatalogEntry) CheckAmount(amount decimal.Decimal) error {
	if c.Type == ProductTypeCard {
		return nil
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return validationErr("amount must be positive")
	}
	if amount.LessThan(c.MinAmount) {
		return validationErr("amount is below the catalog minimum of " + c.MinAmount.String())
	}
	if c.MaxAmount.IsPositive() && amount.GreaterThan(c.MaxAmount) {
		return validationErr("amount is above the catalog maximum of " + c.MaxAmount.String())
	}
	return nil
}
