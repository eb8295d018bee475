package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/metrics"
)

// OpenProductInput represents the input for purchasing a catalog product
type OpenProductInput struct {
	CatalogID       string
	Amount          decimal.Decimal
	SourceAccountID uuid.UUID
}

// CloseProductInput represents the input for closing a product.
// RepaymentAccountID falls back to the product's source account when nil.
type CloseProductInput struct {
	ProductID          uuid.UUID
	RepaymentAccountID *uuid.UUID
}

// ProductService is the Product/Card Lifecycle Manager
type ProductService struct {
	Ledger   domain.Ledger
	Activity domain.ActivityRecorder
	Log      *zap.Logger
	// DedicatedCardAccounts makes every card open its own zero-balance backing account
	DedicatedCardAccounts bool

	catalog map[string]domain.CatalogEntry
	order   []string
}

// NewProductService creates a new ProductService instance
func NewProductService(
	ledger domain.Ledger,
	activity domain.ActivityRecorder,
	catalog []domain.CatalogEntry,
	log *zap.Logger,
) *ProductService {
	s := &ProductService{
		Ledger:   ledger,
		Activity: activity,
		Log:      log,
		catalog:  make(map[string]domain.CatalogEntry, len(catalog)),
	}
	for _, entry := range catalog {
		if _, dup := s.catalog[entry.ID]; !dup {
			s.order = append(s.order, entry.ID)
		}
		s.catalog[entry.ID] = entry
	}
	return s
}

// Catalog returns the products offered for purchase
func (s *ProductService) Catalog() []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.catalog[id])
	}
	return out
}

// OpenProduct purchases a catalog product funded from (or, for cards, linked to)
// the source account.
//   - deposit: the principal moves from the source account into the product
//   - loan/credit: the principal is disbursed into the source account and
//     becomes the outstanding debt
//   - card: a zero-amount product tied to the source account, or to a
//     dedicated backing account
func (s *ProductService) OpenProduct(ctx context.Context, input OpenProductInput) (domain.Product, error) {
	p, err := s.openProduct(input)
	metrics.RecordOperation("open_product", err)
	if err != nil {
		s.Log.Warn("open product failed",
			zap.String("catalog_id", input.CatalogID),
			zap.String("account_id", input.SourceAccountID.String()),
			zap.String("amount", input.Amount.String()),
			zap.Error(err),
		)
		return domain.Product{}, err
	}

	if s.Activity != nil {
		s.Activity.RecordActivity(domain.Activity{Kind: domain.ActivityProductOpened, Amount: p.Amount, ProductType: p.Type})
		if p.Type == domain.ProductTypeDeposit {
			s.Activity.RecordActivity(domain.Activity{Kind: domain.ActivityDepositOpened, Amount: p.Amount, ProductType: p.Type})
		}
	}

	s.Log.Info("product opened",
		zap.String("product_id", p.ID.String()),
		zap.String("type", string(p.Type)),
		zap.String("account_id", input.SourceAccountID.String()),
		zap.String("amount", p.Amount.String()),
	)
	return p, nil
}

func (s *ProductService) openProduct(input OpenProductInput) (domain.Product, error) {
	entry, ok := s.catalog[input.CatalogID]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: catalog product %s", domain.ErrNotFound, input.CatalogID)
	}
	if err := entry.CheckAmount(input.Amount); err != nil {
		return domain.Product{}, err
	}

	source, ok := s.Ledger.GetAccountByID(input.SourceAccountID)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: source account %s", domain.ErrNotFound, input.SourceAccountID)
	}

	bank := entry.Bank
	if bank == "" {
		bank = source.Bank
	}
	sourceID := source.ID
	p := domain.Product{
		ID:              uuid.New(),
		CatalogID:       entry.ID,
		Type:            entry.Type,
		Name:            entry.Name,
		Amount:          input.Amount,
		Rate:            entry.Rate,
		Status:          domain.ProductStatusActive,
		Bank:            bank,
		TermMonths:      entry.TermMonths,
		SourceAccountID: &sourceID,
	}

	switch {
	case entry.Type == domain.ProductTypeCard:
		return s.openCard(p, source)

	case entry.Type == domain.ProductTypeDeposit:
		if source.Balance.LessThan(input.Amount) {
			return domain.Product{}, fmt.Errorf("%w: balance %s is less than %s", domain.ErrInsufficientFunds, source.Balance, input.Amount)
		}
		err := s.Ledger.Commit(domain.Change{
			Posting:     domain.NewPosting("Deposit opened", domain.AccountHolder(source.ID), domain.ProductHolder(p.ID), input.Amount),
			AddProducts: []domain.Product{p},
			History: []domain.HistoryEntry{productEntry(domain.HistoryKindDeposit,
				"Deposit opened: "+p.Name, source, input.Amount.Neg())},
		})
		if err != nil {
			return domain.Product{}, err
		}
		return p, nil

	case entry.Type.IsLending():
		err := s.Ledger.Commit(domain.Change{
			Posting:     domain.NewPosting(p.Type.DisplayName()+" disbursed", domain.ExternalParty, domain.AccountHolder(source.ID), input.Amount),
			AddProducts: []domain.Product{p},
			History: []domain.HistoryEntry{productEntry(domain.HistoryKindProduct,
				p.Type.DisplayName()+" disbursed: "+p.Name, source, input.Amount)},
		})
		if err != nil {
			return domain.Product{}, err
		}
		return p, nil
	}

	return domain.Product{}, fmt.Errorf("%w: unsupported product type %s", domain.ErrValidation, entry.Type)
}

func (s *ProductService) openCard(p domain.Product, source domain.Account) (domain.Product, error) {
	p.Amount = decimal.Zero

	if !s.DedicatedCardAccounts {
		p.LinkedAccountID = &source.ID
		err := s.Ledger.Commit(domain.Change{
			AddProducts: []domain.Product{p},
			History: []domain.HistoryEntry{productEntry(domain.HistoryKindProduct,
				"Card issued: "+p.Name, source, decimal.Zero)},
		})
		if err != nil {
			return domain.Product{}, err
		}
		return p, nil
	}

	backing, err := s.Ledger.CreateAccount(p.Bank, domain.AccountTypeCard, decimal.Zero, &p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	p.LinkedAccountID = &backing.ID

	err = s.Ledger.Commit(domain.Change{
		AddProducts: []domain.Product{p},
		History: []domain.HistoryEntry{productEntry(domain.HistoryKindProduct,
			"Card issued: "+p.Name, backing, decimal.Zero)},
	})
	if err != nil {
		// Roll the empty backing account back
		if rbErr := s.Ledger.Commit(domain.Change{RemoveAccounts: []uuid.UUID{backing.ID}}); rbErr != nil {
			s.Log.Error("failed to remove card backing account", zap.String("account_id", backing.ID.String()), zap.Error(rbErr))
		}
		return domain.Product{}, err
	}
	return p, nil
}

// CloseProduct closes a product according to its type
//   - deposit: the principal is paid out to the repayment (or source) account
//   - card: the product record is removed, any linked account is left untouched
//   - loan/credit: the outstanding amount is repaid from the repayment (or source) account
//
// Every branch appends a history entry.
func (s *ProductService) CloseProduct(ctx context.Context, input CloseProductInput) error {
	p, err := s.closeProduct(input)
	metrics.RecordOperation("close_product", err)
	if err != nil {
		s.Log.Warn("close product failed", zap.String("product_id", input.ProductID.String()), zap.Error(err))
		return err
	}

	s.Log.Info("product closed",
		zap.String("product_id", p.ID.String()),
		zap.String("type", string(p.Type)),
		zap.String("amount", p.Amount.String()),
	)
	return nil
}

func (s *ProductService) closeProduct(input CloseProductInput) (domain.Product, error) {
	p, ok := s.Ledger.GetProduct(input.ProductID)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s", domain.ErrNotFound, input.ProductID)
	}

	if p.Type == domain.ProductTypeCard {
		entry := domain.HistoryEntry{
			Kind:        domain.HistoryKindProduct,
			Description: "Card closed: " + p.Name,
			Amount:      decimal.Zero,
			Bank:        p.Bank,
		}
		if p.LinkedAccountID != nil {
			if linked, ok := s.Ledger.GetAccountByID(*p.LinkedAccountID); ok {
				entry.AccountNumber = linked.AccountNumber
				entry.Currency = linked.Currency
			}
		}
		return p, s.Ledger.Commit(domain.Change{
			RemoveProducts: []uuid.UUID{p.ID},
			History:        []domain.HistoryEntry{entry},
		})
	}

	target, err := s.settlementAccount(p, input.RepaymentAccountID)
	if err != nil {
		return domain.Product{}, err
	}

	switch {
	case p.Type == domain.ProductTypeDeposit:
		return p, s.Ledger.Commit(domain.Change{
			Posting:        domain.NewPosting("Deposit closed", domain.ProductHolder(p.ID), domain.AccountHolder(target.ID), p.Amount),
			RemoveProducts: []uuid.UUID{p.ID},
			History: []domain.HistoryEntry{productEntry(domain.HistoryKindDeposit,
				"Deposit closed: "+p.Name, target, p.Amount)},
		})

	case p.Type.IsLending():
		if target.Balance.LessThan(p.Amount) {
			return domain.Product{}, fmt.Errorf("%w: balance %s is less than the outstanding %s", domain.ErrInsufficientFunds, target.Balance, p.Amount)
		}
		return p, s.Ledger.Commit(domain.Change{
			Posting:        domain.NewPosting(p.Type.DisplayName()+" repaid", domain.AccountHolder(target.ID), domain.ExternalParty, p.Amount),
			RemoveProducts: []uuid.UUID{p.ID},
			History: []domain.HistoryEntry{productEntry(domain.HistoryKindProduct,
				p.Type.DisplayName()+" repaid: "+p.Name, target, p.Amount.Neg())},
		})
	}

	return domain.Product{}, fmt.Errorf("%w: unsupported product type %s", domain.ErrValidation, p.Type)
}

// settlementAccount resolves the account a closing product pays into or out of
func (s *ProductService) settlementAccount(p domain.Product, repaymentID *uuid.UUID) (domain.Account, error) {
	if repaymentID != nil {
		acc, ok := s.Ledger.GetAccountByID(*repaymentID)
		if !ok {
			return domain.Account{}, fmt.Errorf("%w: repayment account %s", domain.ErrNotFound, *repaymentID)
		}
		return acc, nil
	}
	if p.SourceAccountID != nil {
		if acc, ok := s.Ledger.GetAccountByID(*p.SourceAccountID); ok {
			return acc, nil
		}
	}
	return domain.Account{}, fmt.Errorf("%w: a repayment account is required to close %s", domain.ErrValidation, p.Name)
}

func productEntry(kind domain.HistoryKind, description string, acc domain.Account, amount decimal.Decimal) domain.HistoryEntry {
	return domain.HistoryEntry{
		Kind:          kind,
		Description:   description,
		AccountNumber: acc.AccountNumber,
		Amount:        amount,
		Bank:          acc.Bank,
		Currency:      acc.Currency,
	}
}
