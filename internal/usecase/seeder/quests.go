package seeder

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// FreeQuests returns the free quest queue in serving order
func FreeQuests() []domain.Quest {
	return []domain.Quest{
		{
			ID:          "free-open-account",
			Description: "Open an account in any bank",
			Prize:       "15% discount at a partner store",
			Target:      domain.CategoryTarget(domain.TargetNewAccount),
			Points:      5,
			Type:        domain.QuestTypeAccountOpening,
		},
		{
			ID:          "free-transfers",
			Description: "Make three transfers between your accounts",
			Prize:       "3% cashback in restaurants",
			Target:      domain.CategoryTarget(domain.TargetTransfers),
			Points:      10,
			Type:        domain.QuestTypeTransferAmount,
		},
		{
			ID:          "free-first-product",
			Description: "Buy any financial product (deposit or loan) for at least 1000",
			Prize:       "5% cashback on everything",
			Target:      domain.NumericTarget(decimal.NewFromInt(1000)),
			Points:      8,
			Type:        domain.QuestTypeProductPurchase,
		},
	}
}

// PremiumQuests returns the premium quest queue in serving order
func PremiumQuests() []domain.Quest {
	return []domain.Quest{
		{
			ID:          "premium-large-transfer",
			Description: "Transfer more than 10,000 in total",
			Prize:       "5% cashback on all purchases",
			Target:      domain.NumericTarget(decimal.NewFromInt(10000)),
			Points:      10,
			Type:        domain.QuestTypeTransferAmount,
		},
		{
			ID:          "premium-deposit",
			Description: "Open a deposit of at least 50,000",
			Prize:       "A free month of card service",
			Target:      domain.NumericTarget(decimal.NewFromInt(50000)),
			Points:      15,
			Type:        domain.QuestTypeDepositAmount,
		},
		{
			ID:          "premium-credit-card",
			Description: "Get a credit card",
			Target:      domain.CategoryTarget(domain.TargetCreditCard),
			Points:      10,
			Type:        domain.QuestTypeProductPurchase,
		},
		{
			ID:          "premium-payments",
			Description: "Make five payments to external accounts",
			Prize:       "Premium cashback 5%",
			Target:      domain.CategoryTarget(domain.TargetPayments),
			Points:      10,
			Type:        domain.QuestTypePaymentOperation,
		},
		{
			ID:          "premium-mobile-bank",
			Description: "Use the mobile bank seven times",
			Target:      domain.CategoryTarget(domain.TargetMobileBank),
			Points:      10,
			Type:        domain.QuestTypeService,
		},
		{
			ID:          "premium-referral",
			Description: "Invite a friend",
			Prize:       "1000 bonus points",
			Target:      domain.CategoryTarget(domain.TargetReferral),
			Points:      15,
			Type:        domain.QuestTypeReferral,
		},
		{
			ID:          "premium-autopayment",
			Description: "Set up an autopayment",
			Target:      domain.CategoryTarget(domain.TargetAutopayment),
			Points:      10,
			Type:        domain.QuestTypePaymentOperation,
		},
		{
			ID:          "premium-all-services",
			Description: "Try five different services",
			Target:      domain.CategoryTarget(domain.TargetAllServices),
			Points:      20,
			Type:        domain.QuestTypeService,
		},
	}
}
