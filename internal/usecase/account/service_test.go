package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/ledger"
)

// MockActivityRecorder is a mock implementation of ActivityRecorder for testing
type MockActivityRecorder struct {
	mock.Mock
}

func (m *MockActivityRecorder) RecordActivity(a domain.Activity) {
	m.Called(a)
}

func newService(t *testing.T) (*AccountService, *ledger.Store, *MockActivityRecorder) {
	t.Helper()
	store := ledger.NewStore(ledger.Options{Currency: "RUB"})
	activity := new(MockActivityRecorder)
	return NewAccountService(store, activity, zap.NewNop()), store, activity
}

func TestOpenAccount(t *testing.T) {
	ctx := context.Background()
	service, store, activity := newService(t)
	activity.On("RecordActivity", domain.Activity{Kind: domain.ActivityAccountOpened}).Return()

	acc, err := service.OpenAccount(ctx, OpenAccountInput{
		Bank:           "VBank",
		AccountType:    domain.AccountTypeChecking,
		InitialBalance: decimal.Zero,
	})

	require.NoError(t, err)
	assert.Equal(t, "VBank", acc.Bank)
	assert.True(t, acc.Balance.IsZero())
	assert.Len(t, acc.AccountNumber, 16)

	entries, total := store.History(domain.HistoryFilter{})
	assert.Equal(t, 1, total)
	assert.Equal(t, acc.AccountNumber, entries[0].AccountNumber)
	activity.AssertExpectations(t)
}

func TestOpenAccount_EmptyBank(t *testing.T) {
	service, store, activity := newService(t)

	_, err := service.OpenAccount(context.Background(), OpenAccountInput{Bank: ""})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, store.ListAccounts())
	activity.AssertNotCalled(t, "RecordActivity", mock.Anything)
}

func TestCloseAccount(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newService(t)
	a, _ := store.CreateAccount("VBank", domain.AccountTypeChecking, decimal.NewFromInt(400), nil)
	b, _ := store.CreateAccount("ABank", domain.AccountTypeChecking, decimal.NewFromInt(100), nil)

	require.NoError(t, service.CloseAccount(ctx, a.ID, b.ID))

	_, ok := store.GetAccountByID(a.ID)
	assert.False(t, ok)
	got, _ := store.GetAccountByID(b.ID)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(500)))
}

func TestCloseAccount_ProductBacked(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newService(t)
	productID := uuid.New()
	backing, _ := store.CreateAccount("VBank", domain.AccountTypeCard, decimal.Zero, &productID)
	other, _ := store.CreateAccount("VBank", domain.AccountTypeChecking, decimal.Zero, nil)
	require.NoError(t, store.Commit(domain.Change{AddProducts: []domain.Product{{
		ID:              productID,
		Type:            domain.ProductTypeCard,
		Name:            "Debit card",
		Status:          domain.ProductStatusActive,
		LinkedAccountID: &backing.ID,
	}}}))

	err := service.CloseAccount(ctx, backing.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Once the card is gone the account can be closed
	require.NoError(t, store.Commit(domain.Change{RemoveProducts: []uuid.UUID{productID}}))
	assert.NoError(t, service.CloseAccount(ctx, backing.ID, other.ID))
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newService(t)
	a, _ := store.CreateAccount("VBank", domain.AccountTypeChecking, decimal.Zero, nil)

	acc, err := service.Deposit(ctx, a.ID, decimal.NewFromInt(10000), "")

	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(10000)))
	assert.True(t, store.TotalBalance().Equal(decimal.NewFromInt(10000)))

	_, err = service.Deposit(ctx, a.ID, decimal.Zero, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.Deposit(ctx, uuid.New(), decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
