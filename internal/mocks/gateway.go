// Package mocks holds testify doubles shared by several test packages.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// Gateway is a mock implementation of domain.Gateway
type Gateway struct {
	mock.Mock
}

var _ domain.Gateway = (*Gateway)(nil)

func (m *Gateway) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Account), args.Error(1)
}

func (m *Gateway) CloseAccount(ctx context.Context, req domain.CloseAccountRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *Gateway) AggregateAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *Gateway) ListTransactions(ctx context.Context, accountNumber string) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}

func (m *Gateway) CreatePayment(ctx context.Context, req domain.PaymentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *Gateway) ProductCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CatalogEntry), args.Error(1)
}

func (m *Gateway) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *Gateway) BuyProduct(ctx context.Context, req domain.BuyProductRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *Gateway) DeleteProduct(ctx context.Context, req domain.DeleteProductRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *Gateway) ListCards(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *Gateway) CreateCard(ctx context.Context, req domain.CreateCardRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *Gateway) DeleteCard(ctx context.Context, cardID string) error {
	args := m.Called(ctx, cardID)
	return args.Error(0)
}

func (m *Gateway) AvailableQuests(ctx context.Context) ([]domain.Quest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Quest), args.Error(1)
}

func (m *Gateway) CurrentQuest(ctx context.Context) (*domain.Quest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quest), args.Error(1)
}

func (m *Gateway) AssignQuest(ctx context.Context, questID string) error {
	args := m.Called(ctx, questID)
	return args.Error(0)
}

func (m *Gateway) AssignFirstQuest(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Gateway) CompleteQuest(ctx context.Context, questID string) error {
	args := m.Called(ctx, questID)
	return args.Error(0)
}

func (m *Gateway) Profile(ctx context.Context) (domain.Profile, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *Gateway) Rewards(ctx context.Context) ([]domain.Reward, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reward), args.Error(1)
}
