package transfer

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/metrics"
)

// TransferInput represents the input for moving funds between account numbers
type TransferInput struct {
	FromAccountNumber string
	ToAccountNumber   string
	Amount            decimal.Decimal
	Description       string
	// AllowExternal lets the destination be a number the ledger does not track.
	// The source is still debited; nothing is credited locally.
	AllowExternal bool
}

// TransferResult describes a committed transfer
type TransferResult struct {
	From     domain.Account
	To       *domain.Account // nil for an external destination
	Amount   decimal.Decimal
	External bool
}

// TransferService is the Transfer Engine
type TransferService struct {
	Ledger   domain.Ledger
	Activity domain.ActivityRecorder
	Log      *zap.Logger
}

// NewTransferService creates a new TransferService instance
func NewTransferService(ledger domain.Ledger, activity domain.ActivityRecorder, log *zap.Logger) *TransferService {
	return &TransferService{
		Ledger:   ledger,
		Activity: activity,
		Log:      log,
	}
}

// Transfer validates and executes a transfer.
// Preconditions, first failure wins:
//  1. amount > 0
//  2. source exists
//  3. destination exists (or is external and allowed)
//  4. source != destination
//  5. source balance >= amount
//
// The debit, the credit and both history entries are committed as one change.
func (s *TransferService) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	result, err := s.transfer(input)
	metrics.RecordOperation("transfer", err)
	if err != nil {
		s.Log.Warn("transfer failed",
			zap.String("from", input.FromAccountNumber),
			zap.String("to", input.ToAccountNumber),
			zap.String("amount", input.Amount.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if s.Activity != nil {
		s.Activity.RecordActivity(domain.Activity{Kind: domain.ActivityTransfer, Amount: result.Amount})
		if result.External {
			s.Activity.RecordActivity(domain.Activity{Kind: domain.ActivityPayment, Amount: result.Amount})
		}
	}

	s.Log.Info("transfer completed",
		zap.String("account_id", result.From.ID.String()),
		zap.String("to", input.ToAccountNumber),
		zap.String("amount", result.Amount.String()),
		zap.Bool("external", result.External),
	)
	return result, nil
}

func (s *TransferService) transfer(input TransferInput) (*TransferResult, error) {
	// 1. Amount
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: transfer amount must be positive", domain.ErrValidation)
	}

	// 2. Source
	from, ok := s.Ledger.GetAccountByNumber(input.FromAccountNumber)
	if !ok {
		return nil, fmt.Errorf("%w: source account %s", domain.ErrNotFound, input.FromAccountNumber)
	}

	// 3. Destination
	to, tracked := s.Ledger.GetAccountByNumber(input.ToAccountNumber)
	if !tracked {
		if !input.AllowExternal {
			return nil, fmt.Errorf("%w: destination account %s", domain.ErrNotFound, input.ToAccountNumber)
		}
		if !domain.IsAccountNumber(input.ToAccountNumber) {
			return nil, fmt.Errorf("%w: destination must be a %d digit account number", domain.ErrValidation, domain.AccountNumberLength)
		}
	}

	// 4. Same account
	if tracked && from.ID == to.ID {
		return nil, domain.ErrSameAccount
	}

	// 5. Funds
	if from.Balance.LessThan(input.Amount) {
		return nil, fmt.Errorf("%w: balance %s is less than %s", domain.ErrInsufficientFunds, from.Balance, input.Amount)
	}

	description := input.Description
	if description == "" {
		description = "Transfer to " + domain.FormatAccountNumber(input.ToAccountNumber)
	}

	destination := domain.ExternalParty
	if tracked {
		destination = domain.AccountHolder(to.ID)
	}

	change := domain.Change{
		Posting: domain.NewPosting(description, domain.AccountHolder(from.ID), destination, input.Amount),
		History: []domain.HistoryEntry{{
			Kind:          domain.HistoryKindTransfer,
			Description:   description,
			AccountNumber: from.AccountNumber,
			FromAccount:   from.AccountNumber,
			ToAccount:     input.ToAccountNumber,
			Amount:        input.Amount.Neg(),
			Bank:          from.Bank,
			Currency:      from.Currency,
		}},
	}
	if tracked {
		change.History = append(change.History, domain.HistoryEntry{
			Kind:          domain.HistoryKindTransfer,
			Description:   "Transfer from " + domain.FormatAccountNumber(from.AccountNumber),
			AccountNumber: to.AccountNumber,
			FromAccount:   from.AccountNumber,
			ToAccount:     to.AccountNumber,
			Amount:        input.Amount,
			Bank:          to.Bank,
			Currency:      to.Currency,
		})
	}

	// The store re-validates under its lock, so a concurrent debit still fails cleanly
	if err := s.Ledger.Commit(change); err != nil {
		return nil, err
	}

	result := &TransferResult{Amount: input.Amount, External: !tracked}
	result.From, _ = s.Ledger.GetAccountByID(from.ID)
	if tracked {
		updated, _ := s.Ledger.GetAccountByID(to.ID)
		result.To = &updated
	}
	return result, nil
}
