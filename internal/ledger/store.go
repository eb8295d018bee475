// Package ledger holds the in-memory authority for accounts, products and
// transaction history. A single mutex serializes every mutation so that the
// read-validate-write sequence of a commit is atomic; callers only ever see copies.
package ledger

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// ChangeKind names the slice of state a notification is about
type ChangeKind string

const (
	ChangeAccounts ChangeKind = "accounts"
	ChangeProducts ChangeKind = "products"
	ChangeHistory  ChangeKind = "history"
)

// Listener receives change notifications after a mutation is committed
type Listener func(kinds []ChangeKind)

// Options configures a Store
type Options struct {
	Currency     string
	NumberPrefix byte // First digit of every generated account number
	Now          func() time.Time
	Digits       func() uint64 // Source of randomness for account numbers
}

// Store implements domain.Ledger
type Store struct {
	mu        sync.Mutex
	opts      Options
	accounts  map[uuid.UUID]*domain.Account
	byNumber  map[string]uuid.UUID
	products  map[uuid.UUID]*domain.Product
	history   []domain.HistoryEntry
	nextEntry int64
	listeners []Listener
}

var _ domain.Ledger = (*Store)(nil)

// NewStore creates an empty Store
func NewStore(opts Options) *Store {
	if opts.Currency == "" {
		opts.Currency = "RUB"
	}
	if opts.NumberPrefix < '1' || opts.NumberPrefix > '9' {
		opts.NumberPrefix = '4'
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Digits == nil {
		opts.Digits = rand.Uint64
	}
	return &Store{
		opts:     opts,
		accounts: make(map[uuid.UUID]*domain.Account),
		byNumber: make(map[string]uuid.UUID),
		products: make(map[uuid.UUID]*domain.Product),
	}
}

// Subscribe registers a listener for change notifications
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Currency returns the currency new accounts are opened in
func (s *Store) Currency() string {
	return s.opts.Currency
}

// CreateAccount opens an account with a fresh unique account number
func (s *Store) CreateAccount(bank string, accountType domain.AccountType, initialBalance decimal.Decimal, productID *uuid.UUID) (domain.Account, error) {
	if strings.TrimSpace(bank) == "" {
		return domain.Account{}, fmt.Errorf("%w: bank cannot be empty", domain.ErrValidation)
	}
	if initialBalance.IsNegative() {
		return domain.Account{}, fmt.Errorf("%w: initial balance cannot be negative", domain.ErrValidation)
	}
	if accountType == "" {
		accountType = domain.AccountTypeChecking
	}

	s.mu.Lock()
	account := domain.Account{
		ID:            uuid.New(),
		Bank:          bank,
		AccountType:   accountType,
		Balance:       initialBalance,
		AccountNumber: s.newAccountNumber(),
		Currency:      s.opts.Currency,
		ProductID:     productID,
	}
	if err := account.Validate(); err != nil {
		s.mu.Unlock()
		return domain.Account{}, err
	}
	s.putAccount(account)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, ChangeAccounts)
	return account, nil
}

// CloseAccount moves the full balance of accountID to destinationAccountID and
// removes the closed account
func (s *Store) CloseAccount(accountID, destinationAccountID uuid.UUID) error {
	s.mu.Lock()
	source, ok := s.accounts[accountID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: account %s", domain.ErrNotFound, accountID)
	}
	dest, ok := s.accounts[destinationAccountID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: destination account %s", domain.ErrNotFound, destinationAccountID)
	}
	if accountID == destinationAccountID {
		s.mu.Unlock()
		return domain.ErrSameAccount
	}

	change := domain.Change{RemoveAccounts: []uuid.UUID{accountID}}
	entry := domain.HistoryEntry{
		Kind:          domain.HistoryKindAccount,
		Description:   "Account closed",
		AccountNumber: source.AccountNumber,
		Amount:        decimal.Zero,
		Bank:          source.Bank,
		Currency:      source.Currency,
	}
	if source.Balance.IsPositive() {
		change.Posting = domain.NewPosting("Account closure", domain.AccountHolder(source.ID), domain.AccountHolder(dest.ID), source.Balance)
		entry.FromAccount = source.AccountNumber
		entry.ToAccount = dest.AccountNumber
		entry.Amount = source.Balance.Neg()
		change.History = append(change.History, domain.HistoryEntry{
			Kind:          domain.HistoryKindTransfer,
			Description:   "Balance from closed account",
			AccountNumber: dest.AccountNumber,
			FromAccount:   source.AccountNumber,
			ToAccount:     dest.AccountNumber,
			Amount:        source.Balance,
			Bank:          dest.Bank,
			Currency:      dest.Currency,
		})
	}
	change.History = append([]domain.HistoryEntry{entry}, change.History...)

	kinds, err := s.commitLocked(change)
	listeners := s.listeners
	s.mu.Unlock()
	if err != nil {
		return err
	}

	notify(listeners, kinds...)
	return nil
}

// GetAccountByID returns a copy of the account
func (s *Store) GetAccountByID(id uuid.UUID) (domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, false
	}
	return *a, true
}

// GetAccountByNumber returns a copy of the account with the given number
func (s *Store) GetAccountByNumber(number string) (domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byNumber[number]
	if !ok {
		return domain.Account{}, false
	}
	return *s.accounts[id], true
}

// ListAccounts returns copies of all accounts ordered by bank and number
func (s *Store) ListAccounts() []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bank != out[j].Bank {
			return out[i].Bank < out[j].Bank
		}
		return out[i].AccountNumber < out[j].AccountNumber
	})
	return out
}

// GetProduct returns a copy of the product
func (s *Store) GetProduct(id uuid.UUID) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, false
	}
	return *p, true
}

// ListProducts returns copies of all products ordered by name
func (s *Store) ListProducts() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Commit validates and applies a change atomically
func (s *Store) Commit(change domain.Change) error {
	s.mu.Lock()
	kinds, err := s.commitLocked(change)
	listeners := s.listeners
	s.mu.Unlock()
	if err != nil {
		return err
	}

	notify(listeners, kinds...)
	return nil
}

// RecordTransaction appends a history entry, assigning a sequential ID and
// the current time when Date is zero
func (s *Store) RecordTransaction(entry domain.HistoryEntry) domain.HistoryEntry {
	s.mu.Lock()
	entry = s.appendHistoryLocked(entry)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, ChangeHistory)
	return entry
}

// History returns one page of history, newest first, and the total match count
func (s *Store) History(filter domain.HistoryFilter) ([]domain.HistoryEntry, int) {
	s.mu.Lock()
	matched := make([]domain.HistoryEntry, 0, len(s.history))
	for _, e := range s.history {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= total {
			return []domain.HistoryEntry{}, total
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total
}

// TotalBalance returns the sum of all account balances
func (s *Store) TotalBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, a := range s.accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// TotalHoldings returns account balances plus deposit principals: the value
// that postings conserve
func (s *Store) TotalHoldings() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, a := range s.accounts {
		total = total.Add(a.Balance)
	}
	for _, p := range s.products {
		if holdsValue(p) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// ReplaceAccounts swaps the whole account set, used when the backend is the source of truth
func (s *Store) ReplaceAccounts(accounts []domain.Account) {
	s.mu.Lock()
	s.accounts = make(map[uuid.UUID]*domain.Account, len(accounts))
	s.byNumber = make(map[string]uuid.UUID, len(accounts))
	for _, a := range accounts {
		s.putAccount(a)
	}
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, ChangeAccounts)
}

// ReplaceProducts swaps the whole product set
func (s *Store) ReplaceProducts(products []domain.Product) {
	s.mu.Lock()
	s.products = make(map[uuid.UUID]*domain.Product, len(products))
	for _, p := range products {
		s.products[p.ID] = &p
	}
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, ChangeProducts)
}

// ReplaceHistory swaps the whole history, renumbering entries sequentially
func (s *Store) ReplaceHistory(entries []domain.HistoryEntry) {
	s.mu.Lock()
	s.history = nil
	s.nextEntry = 0
	for _, e := range entries {
		e.ID = 0
		s.appendHistoryLocked(e)
	}
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, ChangeHistory)
}

// commitLocked validates every part of the change before mutating anything.
// Caller must hold s.mu.
func (s *Store) commitLocked(change domain.Change) ([]ChangeKind, error) {
	addedAccounts := make(map[uuid.UUID]domain.Account, len(change.AddAccounts))
	for _, a := range change.AddAccounts {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, exists := s.accounts[a.ID]; exists {
			return nil, fmt.Errorf("%w: account %s already exists", domain.ErrValidation, a.ID)
		}
		if _, exists := s.byNumber[a.AccountNumber]; exists {
			return nil, fmt.Errorf("%w: account number %s already in use", domain.ErrValidation, a.AccountNumber)
		}
		addedAccounts[a.ID] = a
	}

	addedProducts := make(map[uuid.UUID]domain.Product, len(change.AddProducts))
	for _, p := range change.AddProducts {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := s.products[p.ID]; exists {
			return nil, fmt.Errorf("%w: product %s already exists", domain.ErrValidation, p.ID)
		}
		addedProducts[p.ID] = p
	}

	// Resulting balances, computed on copies
	accountBalance := func(id uuid.UUID) (decimal.Decimal, bool) {
		if a, ok := addedAccounts[id]; ok {
			return a.Balance, true
		}
		if a, ok := s.accounts[id]; ok {
			return a.Balance, true
		}
		return decimal.Zero, false
	}
	productAmount := func(id uuid.UUID) (domain.Product, bool) {
		if p, ok := addedProducts[id]; ok {
			return p, true
		}
		if p, ok := s.products[id]; ok {
			return *p, true
		}
		return domain.Product{}, false
	}

	newAccountBalances := make(map[uuid.UUID]decimal.Decimal)
	newProductAmounts := make(map[uuid.UUID]decimal.Decimal)

	if change.Posting != nil {
		if err := change.Posting.Validate(); err != nil {
			return nil, err
		}
		for _, leg := range change.Posting.Legs {
			switch leg.Holder.Kind {
			case domain.HolderAccount:
				if _, seen := newAccountBalances[leg.Holder.ID]; seen {
					continue
				}
				balance, ok := accountBalance(leg.Holder.ID)
				if !ok {
					return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, leg.Holder.ID)
				}
				balance = balance.Add(change.Posting.NetChange(leg.Holder))
				if balance.IsNegative() {
					return nil, fmt.Errorf("%w: account %s", domain.ErrInsufficientFunds, leg.Holder.ID)
				}
				newAccountBalances[leg.Holder.ID] = balance
			case domain.HolderProduct:
				if _, seen := newProductAmounts[leg.Holder.ID]; seen {
					continue
				}
				p, ok := productAmount(leg.Holder.ID)
				if !ok {
					return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, leg.Holder.ID)
				}
				if !holdsValue(&p) {
					return nil, fmt.Errorf("%w: product %s cannot hold a balance", domain.ErrValidation, p.ID)
				}
				amount := p.Amount.Add(change.Posting.NetChange(leg.Holder))
				if amount.IsNegative() {
					return nil, fmt.Errorf("%w: product %s", domain.ErrInsufficientFunds, leg.Holder.ID)
				}
				newProductAmounts[leg.Holder.ID] = amount
			}
		}
	}

	for _, id := range change.RemoveAccounts {
		balance, ok := accountBalance(id)
		if !ok {
			return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
		}
		if b, changed := newAccountBalances[id]; changed {
			balance = b
		}
		if !balance.IsZero() {
			return nil, fmt.Errorf("%w: account %s must be empty before removal", domain.ErrValidation, id)
		}
	}

	for _, id := range change.RemoveProducts {
		p, ok := productAmount(id)
		if !ok {
			return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, id)
		}
		if !holdsValue(&p) {
			continue
		}
		amount := p.Amount
		if a, changed := newProductAmounts[id]; changed {
			amount = a
		}
		if !amount.IsZero() {
			return nil, fmt.Errorf("%w: product %s must be paid out before removal", domain.ErrValidation, id)
		}
	}

	// Everything validated; apply.
	var kinds []ChangeKind
	if len(change.AddAccounts) > 0 || len(change.RemoveAccounts) > 0 || len(newAccountBalances) > 0 {
		kinds = append(kinds, ChangeAccounts)
	}
	if len(change.AddProducts) > 0 || len(change.RemoveProducts) > 0 || len(newProductAmounts) > 0 {
		kinds = append(kinds, ChangeProducts)
	}

	for _, a := range change.AddAccounts {
		s.putAccount(a)
	}
	for _, p := range change.AddProducts {
		s.products[p.ID] = &p
	}
	for id, balance := range newAccountBalances {
		s.accounts[id].Balance = balance
	}
	for id, amount := range newProductAmounts {
		s.products[id].Amount = amount
	}
	for _, id := range change.RemoveAccounts {
		delete(s.byNumber, s.accounts[id].AccountNumber)
		delete(s.accounts, id)
	}
	for _, id := range change.RemoveProducts {
		delete(s.products, id)
	}

	if len(change.History) > 0 {
		for _, e := range change.History {
			s.appendHistoryLocked(e)
		}
		kinds = append(kinds, ChangeHistory)
	}

	return kinds, nil
}

// putAccount indexes an account by ID and number. Caller must hold s.mu.
func (s *Store) putAccount(a domain.Account) {
	s.accounts[a.ID] = &a
	s.byNumber[a.AccountNumber] = a.ID
}

// appendHistoryLocked assigns the next ID and a timestamp. Caller must hold s.mu.
func (s *Store) appendHistoryLocked(e domain.HistoryEntry) domain.HistoryEntry {
	s.nextEntry++
	e.ID = s.nextEntry
	if e.Date.IsZero() {
		e.Date = s.opts.Now()
	}
	if e.Currency == "" {
		e.Currency = s.opts.Currency
	}
	s.history = append(s.history, e)
	return e
}

// newAccountNumber returns a 16-digit number not yet in use: the configured
// prefix digit followed by 15 random digits. Caller must hold s.mu.
func (s *Store) newAccountNumber() string {
	const span = 1_000_000_000_000_000 // 10^15
	for {
		n := fmt.Sprintf("%c%015d", s.opts.NumberPrefix, s.opts.Digits()%span)
		if _, taken := s.byNumber[n]; !taken {
			return n
		}
	}
}

// holdsValue reports whether a product's Amount is value owned by the user.
// Loan amounts are debt and cards carry nothing.
func holdsValue(p *domain.Product) bool {
	return p.Type == domain.ProductTypeDeposit
}

func notify(listeners []Listener, kinds ...ChangeKind) {
	if len(kinds) == 0 {
		return
	}
	for _, l := range listeners {
		l(kinds)
	}
}
