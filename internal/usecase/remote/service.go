package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/metrics"
)

// Reloader reloads slices of backend state after a command
type Reloader interface {
	RefreshAccounts(ctx context.Context) error
	RefreshProducts(ctx context.Context) error
	RefreshHistory(ctx context.Context) error
	RefreshQuests(ctx context.Context) error
	RefreshProfile(ctx context.Context) error
	CurrentQuest() *domain.Quest
}

// OpenProductInput represents the input for buying a product through the backend
type OpenProductInput struct {
	CatalogID     string
	Amount        decimal.Decimal
	AccountNumber string
}

// RemoteService runs View Layer commands against the Backend Gateway. The
// backend is the source of truth: every successful call is followed by the
// reloads of the state it touched. The local ledger is only read for lookups
// and precondition checks.
type RemoteService struct {
	Gateway  domain.Gateway
	Reloader Reloader
	Ledger   domain.Ledger
	Currency string
	Log      *zap.Logger

	mu      sync.Mutex
	catalog map[string]domain.CatalogEntry
}

// NewRemoteService creates a new RemoteService instance
func NewRemoteService(gateway domain.Gateway, reloader Reloader, ledger domain.Ledger, currency string, log *zap.Logger) *RemoteService {
	return &RemoteService{
		Gateway:  gateway,
		Reloader: reloader,
		Ledger:   ledger,
		Currency: currency,
		Log:      log,
	}
}

// OpenAccount opens an account in the given bank, then reloads accounts
func (s *RemoteService) OpenAccount(ctx context.Context, bank string, accountType domain.AccountType, initialBalance decimal.Decimal) (domain.Account, error) {
	if strings.TrimSpace(bank) == "" {
		return domain.Account{}, s.fail("open_account", fmt.Errorf("%w: bank cannot be empty", domain.ErrValidation))
	}
	if initialBalance.IsNegative() {
		return domain.Account{}, s.fail("open_account", fmt.Errorf("%w: initial balance cannot be negative", domain.ErrValidation))
	}
	if accountType == "" {
		accountType = domain.AccountTypeChecking
	}

	acc, err := s.Gateway.CreateAccount(ctx, domain.CreateAccountRequest{
		Bank:           bank,
		AccountType:    accountType,
		InitialBalance: initialBalance,
	})
	if err != nil {
		return domain.Account{}, s.fail("open_account", err)
	}

	s.reload(ctx, "open_account", s.Reloader.RefreshAccounts)
	s.succeed("open_account", zap.String("bank", bank), zap.String("account_number", acc.AccountNumber))
	return acc, nil
}

// CloseAccount closes an account, moving its balance to the destination
func (s *RemoteService) CloseAccount(ctx context.Context, accountID, destinationAccountID uuid.UUID) error {
	if accountID == destinationAccountID {
		return s.fail("close_account", fmt.Errorf("%w: %s", domain.ErrSameAccount, accountID))
	}
	acc, ok := s.Ledger.GetAccountByID(accountID)
	if !ok {
		return s.fail("close_account", fmt.Errorf("%w: account %s", domain.ErrNotFound, accountID))
	}
	dest, ok := s.Ledger.GetAccountByID(destinationAccountID)
	if !ok {
		return s.fail("close_account", fmt.Errorf("%w: destination account %s", domain.ErrNotFound, destinationAccountID))
	}

	err := s.Gateway.CloseAccount(ctx, domain.CloseAccountRequest{
		Bank:               acc.Bank,
		AccountID:          externalID(acc.ExternalID, acc.ID),
		Action:             "transfer",
		DestinationAccount: externalID(dest.ExternalID, dest.ID),
	})
	if err != nil {
		return s.fail("close_account", err)
	}

	s.reload(ctx, "close_account", s.Reloader.RefreshAccounts)
	s.succeed("close_account", zap.String("account_id", accountID.String()))
	return nil
}

// Transfer creates a payment between two known accounts, then reloads
// accounts and history together
func (s *RemoteService) Transfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal, description string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return s.fail("transfer", fmt.Errorf("%w: amount must be positive", domain.ErrValidation))
	}
	from, ok := s.Ledger.GetAccountByNumber(fromNumber)
	if !ok {
		return s.fail("transfer", fmt.Errorf("%w: account %s", domain.ErrNotFound, fromNumber))
	}
	if _, ok := s.Ledger.GetAccountByNumber(toNumber); !ok {
		return s.fail("transfer", fmt.Errorf("%w: account %s", domain.ErrNotFound, toNumber))
	}
	if fromNumber == toNumber {
		return s.fail("transfer", fmt.Errorf("%w: %s", domain.ErrSameAccount, fromNumber))
	}
	if from.Balance.LessThan(amount) {
		return s.fail("transfer", fmt.Errorf("%w: balance %s, requested %s", domain.ErrInsufficientFunds, from.Balance, amount))
	}

	err := s.Gateway.CreatePayment(ctx, domain.PaymentRequest{
		FromAccount: fromNumber,
		ToAccount:   toNumber,
		Amount:      amount,
		Currency:    s.Currency,
		Description: description,
	})
	if err != nil {
		return s.fail("transfer", err)
	}

	var g errgroup.Group
	g.Go(func() error { return s.Reloader.RefreshAccounts(ctx) })
	g.Go(func() error { return s.Reloader.RefreshHistory(ctx) })
	if err := g.Wait(); err != nil {
		s.Log.Warn("reload after transfer failed", zap.Error(err))
	}

	s.succeed("transfer", zap.String("from", fromNumber), zap.String("to", toNumber), zap.String("amount", amount.String()))
	return nil
}

// Catalog returns the backend product catalog, cached after the first load
func (s *RemoteService) Catalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	entries, err := s.Gateway.ProductCatalog(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.catalog = make(map[string]domain.CatalogEntry, len(entries))
	for _, e := range entries {
		s.catalog[e.ID] = e
	}
	s.mu.Unlock()
	return entries, nil
}

// OpenProduct buys a catalog product funded from an account. Cards are issued
// through the cards API on the given account.
func (s *RemoteService) OpenProduct(ctx context.Context, input OpenProductInput) error {
	entry, err := s.catalogEntry(ctx, input.CatalogID)
	if err != nil {
		return s.fail("open_product", err)
	}
	acc, ok := s.Ledger.GetAccountByNumber(input.AccountNumber)
	if !ok {
		return s.fail("open_product", fmt.Errorf("%w: account %s", domain.ErrNotFound, input.AccountNumber))
	}

	if entry.Type == domain.ProductTypeCard {
		err = s.Gateway.CreateCard(ctx, domain.CreateCardRequest{
			Bank:          acc.Bank,
			AccountNumber: acc.AccountNumber,
			CardType:      "debit",
			CardName:      entry.Name,
		})
	} else {
		if err := entry.CheckAmount(input.Amount); err != nil {
			return s.fail("open_product", err)
		}
		if entry.Type == domain.ProductTypeDeposit && acc.Balance.LessThan(input.Amount) {
			return s.fail("open_product", fmt.Errorf("%w: balance %s, requested %s", domain.ErrInsufficientFunds, acc.Balance, input.Amount))
		}
		err = s.Gateway.BuyProduct(ctx, domain.BuyProductRequest{
			Bank:          entry.Bank,
			ProductID:     entry.ID,
			Amount:        input.Amount,
			AccountNumber: acc.AccountNumber,
		})
	}
	if err != nil {
		return s.fail("open_product", err)
	}

	s.reload(ctx, "open_product", s.Reloader.RefreshProducts)
	s.reload(ctx, "open_product", s.Reloader.RefreshAccounts)
	s.succeed("open_product", zap.String("catalog_id", entry.ID), zap.String("amount", input.Amount.String()))
	return nil
}

// CloseProduct closes a product. Non-card products settle against the
// repayment account.
func (s *RemoteService) CloseProduct(ctx context.Context, productID uuid.UUID, repaymentAccountID *uuid.UUID) error {
	p, ok := s.Ledger.GetProduct(productID)
	if !ok {
		return s.fail("close_product", fmt.Errorf("%w: product %s", domain.ErrNotFound, productID))
	}

	if p.Type == domain.ProductTypeCard {
		if err := s.Gateway.DeleteCard(ctx, externalID(p.ExternalID, p.ID)); err != nil {
			return s.fail("close_product", err)
		}
		s.reload(ctx, "close_product", s.Reloader.RefreshProducts)
		s.succeed("close_product", zap.String("product_id", productID.String()))
		return nil
	}

	if repaymentAccountID == nil {
		return s.fail("close_product", fmt.Errorf("%w: repayment account is required", domain.ErrValidation))
	}
	acc, ok := s.Ledger.GetAccountByID(*repaymentAccountID)
	if !ok {
		return s.fail("close_product", fmt.Errorf("%w: repayment account %s", domain.ErrNotFound, *repaymentAccountID))
	}

	err := s.Gateway.DeleteProduct(ctx, domain.DeleteProductRequest{
		Bank:               p.Bank,
		AgreementID:        externalID(p.ExternalID, p.ID),
		RepaymentAccountID: externalID(acc.ExternalID, acc.ID),
		Amount:             p.Amount,
	})
	if err != nil {
		return s.fail("close_product", err)
	}

	s.reload(ctx, "close_product", s.Reloader.RefreshProducts)
	s.reload(ctx, "close_product", s.Reloader.RefreshAccounts)
	s.succeed("close_product", zap.String("product_id", productID.String()))
	return nil
}

// AssignQuest assigns a quest, or the first available one when questID is empty
func (s *RemoteService) AssignQuest(ctx context.Context, questID string) error {
	var err error
	if questID == "" {
		err = s.Gateway.AssignFirstQuest(ctx)
	} else {
		err = s.Gateway.AssignQuest(ctx, questID)
	}
	if err != nil {
		return s.fail("assign_quest", err)
	}

	s.reload(ctx, "assign_quest", s.Reloader.RefreshQuests)
	s.succeed("assign_quest", zap.String("quest_id", questID))
	return nil
}

// CompleteQuest completes a quest, defaulting to the current one. A quest the
// backend reports as already completed is treated as success: the desired
// end state is reached, so the quests are refreshed and nil is returned.
func (s *RemoteService) CompleteQuest(ctx context.Context, questID string) error {
	if questID == "" {
		current := s.Reloader.CurrentQuest()
		if current == nil {
			return s.fail("complete_quest", domain.ErrNoCurrentQuest)
		}
		questID = current.ID
	}

	err := s.Gateway.CompleteQuest(ctx, questID)
	if err != nil && !errors.Is(err, domain.ErrAlreadyCompleted) {
		return s.fail("complete_quest", err)
	}
	if err != nil {
		s.Log.Info("quest already completed, refreshing", zap.String("quest_id", questID))
	}

	s.reload(ctx, "complete_quest", s.Reloader.RefreshQuests)
	s.reload(ctx, "complete_quest", s.Reloader.RefreshProfile)
	s.succeed("complete_quest", zap.String("quest_id", questID))
	return nil
}

// Rewards lists the rewards activated by completed quests
func (s *RemoteService) Rewards(ctx context.Context) ([]domain.Reward, error) {
	rewards, err := s.Gateway.Rewards(ctx)
	if err != nil {
		return nil, s.fail("rewards", err)
	}
	return rewards, nil
}

func (s *RemoteService) catalogEntry(ctx context.Context, id string) (domain.CatalogEntry, error) {
	s.mu.Lock()
	entry, ok := s.catalog[id]
	s.mu.Unlock()
	if ok {
		return entry, nil
	}

	// Not cached: the catalog may have changed since the last load
	if _, err := s.Catalog(ctx); err != nil {
		return domain.CatalogEntry{}, err
	}
	s.mu.Lock()
	entry, ok = s.catalog[id]
	s.mu.Unlock()
	if !ok {
		return domain.CatalogEntry{}, fmt.Errorf("%w: catalog product %s", domain.ErrNotFound, id)
	}
	return entry, nil
}

// reload runs a dependent reload. The command already succeeded on the
// backend, so a failed reload only leaves the local view stale.
func (s *RemoteService) reload(ctx context.Context, op string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.Log.Warn("reload failed", zap.String("operation", op), zap.Error(err))
	}
}

func (s *RemoteService) fail(op string, err error) error {
	metrics.RecordOperation(op, err)
	s.Log.Warn(strings.ReplaceAll(op, "_", " ")+" failed", zap.Error(err))
	return err
}

func (s *RemoteService) succeed(op string, fields ...zap.Field) {
	metrics.RecordOperation(op, nil)
	s.Log.Info(strings.ReplaceAll(op, "_", " ")+" succeeded", fields...)
}

func externalID(external string, id uuid.UUID) string {
	if external != "" {
		return external
	}
	return id.String()
}
