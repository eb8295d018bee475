package seeder

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// DemoSeeder opens one empty account per bank when the ledger starts empty
type DemoSeeder struct {
	ledger domain.Ledger
	log    *zap.Logger
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(ledger domain.Ledger, log *zap.Logger) *DemoSeeder {
	return &DemoSeeder{
		ledger: ledger,
		log:    log,
	}
}

// Seed ensures every demo bank has an account.
// Banks that already have one are left alone.
func (s *DemoSeeder) Seed(ctx context.Context) error {
	existing := make(map[string]bool)
	for _, a := range s.ledger.ListAccounts() {
		existing[a.Bank] = true
	}

	for _, bank := range Banks {
		if existing[bank] {
			continue
		}
		acc, err := s.ledger.CreateAccount(bank, domain.AccountTypeChecking, decimal.Zero, nil)
		if err != nil {
			return err
		}
		s.log.Info("seeded account", zap.String("bank", bank), zap.String("account_id", acc.ID.String()))
	}

	return nil
}
