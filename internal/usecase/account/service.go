package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/metrics"
)

// OpenAccountInput represents the input for opening an account
type OpenAccountInput struct {
	Bank           string
	AccountType    domain.AccountType
	InitialBalance decimal.Decimal
}

// AccountService handles account lifecycle operations against the ledger
type AccountService struct {
	Ledger   domain.Ledger
	Activity domain.ActivityRecorder
	Log      *zap.Logger
}

// NewAccountService creates a new AccountService instance
func NewAccountService(ledger domain.Ledger, activity domain.ActivityRecorder, log *zap.Logger) *AccountService {
	return &AccountService{
		Ledger:   ledger,
		Activity: activity,
		Log:      log,
	}
}

// OpenAccount creates an account and records it in the history
func (s *AccountService) OpenAccount(ctx context.Context, input OpenAccountInput) (domain.Account, error) {
	acc, err := s.Ledger.CreateAccount(input.Bank, input.AccountType, input.InitialBalance, nil)
	metrics.RecordOperation("open_account", err)
	if err != nil {
		s.Log.Warn("open account failed", zap.String("bank", input.Bank), zap.Error(err))
		return domain.Account{}, err
	}

	s.Ledger.RecordTransaction(domain.HistoryEntry{
		Kind:          domain.HistoryKindAccount,
		Description:   fmt.Sprintf("Account opened in %s", acc.Bank),
		AccountNumber: acc.AccountNumber,
		Amount:        acc.Balance,
		Bank:          acc.Bank,
		Currency:      acc.Currency,
	})

	if s.Activity != nil {
		s.Activity.RecordActivity(domain.Activity{Kind: domain.ActivityAccountOpened})
	}

	s.Log.Info("account opened",
		zap.String("account_id", acc.ID.String()),
		zap.String("bank", acc.Bank),
		zap.String("amount", acc.Balance.String()),
	)
	return acc, nil
}

// CloseAccount moves the balance to the destination account and removes the account.
// Accounts backing a live product must be released by closing the product.
func (s *AccountService) CloseAccount(ctx context.Context, accountID, destinationAccountID uuid.UUID) error {
	if acc, ok := s.Ledger.GetAccountByID(accountID); ok && acc.ProductID != nil {
		if _, live := s.Ledger.GetProduct(*acc.ProductID); live {
			err := fmt.Errorf("%w: account backs product %s, close the product instead", domain.ErrValidation, *acc.ProductID)
			metrics.RecordOperation("close_account", err)
			return err
		}
	}

	err := s.Ledger.CloseAccount(accountID, destinationAccountID)
	metrics.RecordOperation("close_account", err)
	if err != nil {
		s.Log.Warn("close account failed", zap.String("account_id", accountID.String()), zap.Error(err))
		return err
	}

	s.Log.Info("account closed",
		zap.String("account_id", accountID.String()),
		zap.String("destination_account_id", destinationAccountID.String()),
	)
	return nil
}

// Deposit credits an account with money arriving from outside the ledger
func (s *AccountService) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, description string) (domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		err := fmt.Errorf("%w: deposit amount must be positive", domain.ErrValidation)
		metrics.RecordOperation("deposit", err)
		return domain.Account{}, err
	}

	acc, ok := s.Ledger.GetAccountByID(accountID)
	if !ok {
		err := fmt.Errorf("%w: account %s", domain.ErrNotFound, accountID)
		metrics.RecordOperation("deposit", err)
		return domain.Account{}, err
	}

	if description == "" {
		description = "Account top-up"
	}

	err := s.Ledger.Commit(domain.Change{
		Posting: domain.NewPosting(description, domain.ExternalParty, domain.AccountHolder(acc.ID), amount),
		History: []domain.HistoryEntry{{
			Kind:          domain.HistoryKindDeposit,
			Description:   description,
			AccountNumber: acc.AccountNumber,
			ToAccount:     acc.AccountNumber,
			Amount:        amount,
			Bank:          acc.Bank,
			Currency:      acc.Currency,
		}},
	})
	metrics.RecordOperation("deposit", err)
	if err != nil {
		s.Log.Warn("deposit failed", zap.String("account_id", accountID.String()), zap.Error(err))
		return domain.Account{}, err
	}

	acc, _ = s.Ledger.GetAccountByID(accountID)
	s.Log.Info("deposit recorded",
		zap.String("account_id", acc.ID.String()),
		zap.String("amount", amount.String()),
	)
	return acc, nil
}
