package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreateAccountRequest asks the backend to open an account
type CreateAccountRequest struct {
	Bank           string
	AccountType    AccountType
	InitialBalance decimal.Decimal
}

// CloseAccountRequest asks the backend to close an account and move its balance
type CloseAccountRequest struct {
	Bank               string
	AccountID          string
	Action             string // "transfer" moves the remaining balance
	DestinationAccount string
}

// PaymentRequest asks the backend to move funds between two accounts
type PaymentRequest struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// BuyProductRequest asks the backend to open a product funded from an account
type BuyProductRequest struct {
	Bank          string
	ProductID     string
	Amount        decimal.Decimal
	AccountNumber string
}

// DeleteProductRequest asks the backend to close a product
type DeleteProductRequest struct {
	Bank               string
	AgreementID        string
	RepaymentAccountID string
	Amount             decimal.Decimal
}

// CreateCardRequest asks the backend to issue a card on an account
type CreateCardRequest struct {
	Bank          string
	AccountNumber string
	CardType      string
	CardName      string
}

// Reward is a prize activated by a completed quest
type Reward struct {
	Code        string
	Description string
	Status      string
}

// Gateway is the Backend Gateway: the source of truth in the API-backed variant
type Gateway interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (Account, error)
	CloseAccount(ctx context.Context, req CloseAccountRequest) error
	AggregateAccounts(ctx context.Context) ([]Account, error)
	ListTransactions(ctx context.Context, accountNumber string) ([]HistoryEntry, error)
	CreatePayment(ctx context.Context, req PaymentRequest) error

	ProductCatalog(ctx context.Context) ([]CatalogEntry, error)
	ListProducts(ctx context.Context) ([]Product, error)
	BuyProduct(ctx context.Context, req BuyProductRequest) error
	DeleteProduct(ctx context.Context, req DeleteProductRequest) error

	ListCards(ctx context.Context) ([]Product, error)
	CreateCard(ctx context.Context, req CreateCardRequest) error
	DeleteCard(ctx context.Context, cardID string) error

	AvailableQuests(ctx context.Context) ([]Quest, error)
	CurrentQuest(ctx context.Context) (*Quest, error)
	AssignQuest(ctx context.Context, questID string) error
	AssignFirstQuest(ctx context.Context) error
	CompleteQuest(ctx context.Context, questID string) error

	Profile(ctx context.Context) (Profile, error)
	Rewards(ctx context.Context) ([]Reward, error)
}
