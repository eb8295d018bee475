package seeder

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// Banks are the banks the demo dashboard aggregates
var Banks = []string{"VBank", "ABank", "SBank"}

// ProductCatalog returns the products offered for purchase
func ProductCatalog() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{
			ID:         "vbank-savings-deposit",
			Type:       domain.ProductTypeDeposit,
			Name:       "Savings deposit",
			Bank:       "VBank",
			Rate:       decimal.RequireFromString("16.5"),
			TermMonths: 6,
			MinAmount:  decimal.NewFromInt(10000),
		},
		{
			ID:         "abank-flex-deposit",
			Type:       domain.ProductTypeDeposit,
			Name:       "Flexible deposit",
			Bank:       "ABank",
			Rate:       decimal.RequireFromString("14.0"),
			TermMonths: 12,
			MinAmount:  decimal.NewFromInt(1000),
			MaxAmount:  decimal.NewFromInt(3000000),
		},
		{
			ID:         "sbank-cash-loan",
			Type:       domain.ProductTypeLoan,
			Name:       "Cash loan",
			Bank:       "SBank",
			Rate:       decimal.RequireFromString("21.9"),
			TermMonths: 36,
			MinAmount:  decimal.NewFromInt(30000),
			MaxAmount:  decimal.NewFromInt(5000000),
		},
		{
			ID:         "vbank-credit-line",
			Type:       domain.ProductTypeCredit,
			Name:       "Credit line",
			Bank:       "VBank",
			Rate:       decimal.RequireFromString("29.9"),
			TermMonths: 12,
			MinAmount:  decimal.NewFromInt(10000),
			MaxAmount:  decimal.NewFromInt(700000),
		},
		{
			ID:   "vbank-debit-card",
			Type: domain.ProductTypeCard,
			Name: "Debit card",
			Bank: "VBank",
		},
		{
			ID:   "abank-credit-card",
			Type: domain.ProductTypeCard,
			Name: "Credit card",
			Bank: "ABank",
			Rate: decimal.RequireFromString("34.9"),
		},
	}
}
