package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

// newServer serves canned responses by "METHOD path" and records every request
func newServer(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*Client, *[]recorded) {
	t.Helper()

	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.body))
		}
		calls = append(calls, rec)

		handler, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w)
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL+"/api/v1/", "team086-1", srv.Client(), zap.NewNop()), &calls
}

func respond(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestAggregateAccounts(t *testing.T) {
	client, calls := newServer(t, map[string]func(http.ResponseWriter){
		"GET /api/v1/aggregate/team086-1": respond(200, `{
			"success": true,
			"totalBalance": 1500.50,
			"accounts": [
				{"accountId": "acc-1", "bank": "VBANK", "accountNumber": "4000000000000001", "accountSubType": "Checking", "availableBalance": 1500.50, "currency": "RUB"},
				{"accountId": "acc-2", "bank": "ABANK", "accountNumber": "4000000000000002", "accountSubType": "Savings", "availableBalance": "0"}
			]
		}`),
	})

	accounts, err := client.AggregateAccounts(context.Background())

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "VBank", accounts[0].Bank)
	assert.Equal(t, domain.AccountTypeChecking, accounts[0].AccountType)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(accounts[0].Balance))
	assert.Equal(t, "acc-1", accounts[0].ExternalID)
	assert.Equal(t, domain.AccountTypeSavings, accounts[1].AccountType)
	assert.Equal(t, "RUB", accounts[1].Currency)

	// Ids are stable across reloads
	again, err := client.AggregateAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, accounts[0].ID, again[0].ID)
	assert.Len(t, *calls, 2)
}

func TestCreateAccount_Request(t *testing.T) {
	client, calls := newServer(t, map[string]func(http.ResponseWriter){
		"POST /api/v1/accounts/team086-1/create": respond(200, `{"success": true, "account": {"accountId": "acc-9", "accountNumber": "4000000000000009", "availableBalance": 0}}`),
	})

	acc, err := client.CreateAccount(context.Background(), domain.CreateAccountRequest{
		Bank:           "SBank",
		AccountType:    domain.AccountTypeChecking,
		InitialBalance: decimal.Zero,
	})

	require.NoError(t, err)
	assert.Equal(t, "SBank", acc.Bank)
	assert.Equal(t, "4000000000000009", acc.AccountNumber)
	require.Len(t, *calls, 1)
	assert.Equal(t, map[string]any{"bankType": "SBANK", "accountType": "checking", "initialBalance": "0"}, (*calls)[0].body)
}

func TestResponses(t *testing.T) {
	tests := []struct {
		name       string
		handler    func(http.ResponseWriter)
		wantErr    error
		wantStatus int
		wantMsg    string
	}{
		{
			name:    "Empty body is success",
			handler: respond(200, ""),
		},
		{
			name:    "Success envelope",
			handler: respond(200, `{"success": true, "message": "ok"}`),
		},
		{
			name:       "Non 2xx is a remote error",
			handler:    respond(502, "upstream down"),
			wantErr:    domain.ErrRemote,
			wantStatus: 502,
			wantMsg:    "upstream down",
		},
		{
			name:       "Failure envelope is a remote error",
			handler:    respond(200, `{"success": false, "message": "limit exceeded"}`),
			wantErr:    domain.ErrRemote,
			wantStatus: 200,
			wantMsg:    "limit exceeded",
		},
		{
			name:       "Error message of a non 2xx envelope",
			handler:    respond(400, `{"success": false, "error": "bad account"}`),
			wantErr:    domain.ErrRemote,
			wantStatus: 400,
			wantMsg:    "bad account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newServer(t, map[string]func(http.ResponseWriter){
				"POST /api/v1/payments/team086-1": tt.handler,
			})

			err := client.CreatePayment(context.Background(), domain.PaymentRequest{
				FromAccount: "4000000000000001",
				ToAccount:   "4000000000000002",
				Amount:      decimal.NewFromInt(100),
				Currency:    "RUB",
			})

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			var remote *domain.RemoteError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, "payment", remote.Op)
			assert.Equal(t, tt.wantStatus, remote.StatusCode)
			assert.Equal(t, tt.wantMsg, remote.Message)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "u", nil, zap.NewNop())

	_, err := client.AggregateAccounts(context.Background())

	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, 0, remote.StatusCode)
}

func TestCompleteQuest_AlreadyCompleted(t *testing.T) {
	client, _ := newServer(t, map[string]func(http.ResponseWriter){
		"POST /api/v1/quests/team086-1/complete/q1": respond(409, `{"success": false, "message": "Quest already completed"}`),
		"POST /api/v1/quests/team086-1/complete/q2": respond(200, `{"success": false, "message": "Квест уже завершен"}`),
		"POST /api/v1/quests/team086-1/complete/q3": respond(200, ""),
	})
	ctx := context.Background()

	assert.ErrorIs(t, client.CompleteQuest(ctx, "q1"), domain.ErrAlreadyCompleted)
	assert.ErrorIs(t, client.CompleteQuest(ctx, "q2"), domain.ErrAlreadyCompleted)
	assert.NoError(t, client.CompleteQuest(ctx, "q3"))
}

func TestTransactions_ResolveAccountNumbers(t *testing.T) {
	client, _ := newServer(t, map[string]func(http.ResponseWriter){
		"GET /api/v1/aggregate/team086-1": respond(200, `{"success": true, "accounts": [
			{"accountId": "acc-1", "bank": "VBANK", "accountNumber": "4000000000000001", "availableBalance": 10}
		]}`),
		"GET /api/v1/transactions/team086-1": respond(200, `{"transactions": [
			{"transactionId": "t1", "accountId": "acc-1", "amount": {"amount": "250.00", "currency": "RUB"}, "creditDebitIndicator": "Debit", "bookingDateTime": "2025-03-01T10:00:00Z", "transactionInformation": "Coffee", "bankType": "VBANK"},
			{"transactionId": "t2", "accountId": "acc-7", "amount": {"amount": "1000"}, "creditDebitIndicator": "Credit", "bookingDateTime": "2025-03-02T10:00:00Z"}
		]}`),
	})
	ctx := context.Background()

	_, err := client.AggregateAccounts(ctx)
	require.NoError(t, err)

	entries, err := client.ListTransactions(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "4000000000000001", entries[0].AccountNumber)
	assert.True(t, decimal.NewFromInt(-250).Equal(entries[0].Amount))
	assert.Equal(t, "Coffee", entries[0].Description)
	assert.Equal(t, "VBank", entries[0].Bank)
	assert.Equal(t, "", entries[1].AccountNumber)
	assert.Equal(t, "Transaction", entries[1].Description)
	assert.True(t, decimal.NewFromInt(1000).Equal(entries[1].Amount))

	filtered, err := client.ListTransactions(ctx, "4000000000000001")
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestProductsAndCards(t *testing.T) {
	client, calls := newServer(t, map[string]func(http.ResponseWriter){
		"GET /api/v1/aggregate/team086-1": respond(200, `{"success": true, "accounts": [
			{"accountId": "acc-1", "bank": "ABANK", "accountNumber": "4000000000000001", "availableBalance": 10}
		]}`),
		"GET /api/v1/products/catalog": respond(200, `{"success": true, "products": [
			{"productId": "dep-1", "productType": "DEPOSIT", "productName": "Savings", "interestRate": "16.5", "minAmount": "1000", "maxAmount": "500000", "termMonth": 6, "bankType": "VBANK"}
		]}`),
		"GET /api/v1/products/team086-1": respond(200, `{"success": true, "products": [
			{"productId": "loan-1", "agreementId": "agr-5", "productType": "LOAN", "productName": "Cash loan", "minAmount": "30000", "status": "active", "bankType": "SBANK"}
		]}`),
		"GET /api/v1/cards/team086-1": respond(200, `{"success": true, "cards": [
			{"cardId": "card-3", "cardName": "Debit card", "status": "active", "accountNumber": "4000000000000001", "bankType": "ABANK"}
		]}`),
		"DELETE /api/v1/cards/team086-1/card-3":    respond(200, `{"success": true}`),
		"DELETE /api/v1/products/team086-1/delete": respond(200, `{"success": true}`),
	})
	ctx := context.Background()

	accounts, err := client.AggregateAccounts(ctx)
	require.NoError(t, err)

	catalog, err := client.ProductCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, domain.ProductTypeDeposit, catalog[0].Type)
	assert.True(t, decimal.RequireFromString("16.5").Equal(catalog[0].Rate))
	assert.Equal(t, 6, catalog[0].TermMonths)
	assert.NoError(t, catalog[0].CheckAmount(decimal.NewFromInt(1000)))

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, domain.ProductTypeLoan, products[0].Type)
	assert.Equal(t, domain.ProductStatusActive, products[0].Status)
	assert.Equal(t, "agr-5", products[0].ExternalID)
	assert.True(t, decimal.NewFromInt(30000).Equal(products[0].Amount))

	cards, err := client.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.NotNil(t, cards[0].LinkedAccountID)
	assert.Equal(t, accounts[0].ID, *cards[0].LinkedAccountID)
	assert.NoError(t, cards[0].Validate())

	require.NoError(t, client.DeleteCard(ctx, "card-3"))
	require.NoError(t, client.DeleteProduct(ctx, domain.DeleteProductRequest{
		Bank: "SBank", AgreementID: "agr-5", RepaymentAccountID: "acc-1", Amount: decimal.NewFromInt(30000),
	}))
	last := (*calls)[len(*calls)-1]
	assert.Equal(t, map[string]any{
		"bankType": "SBANK", "agreementId": "agr-5", "repaymentAccountId": "acc-1", "repaymentAmount": "30000",
	}, last.body)
}

func TestQuests(t *testing.T) {
	client, _ := newServer(t, map[string]func(http.ResponseWriter){
		"GET /api/v1/quests/team086-1/currentQuest": respond(200, `{"success": true, "quest": {
			"id": "q1", "title": "Big transfer", "questType": "TRANSFER_AMOUNT", "points": 10, "minAmount": 10000, "currentProgress": 2500,
			"rewards": {"description": "3% cashback"}
		}}`),
		"GET /api/v1/quests/team086-1/available": respond(200, `[
			{"id": "q1", "questType": "TRANSFER_AMOUNT", "minAmount": 10000},
			{"id": "q2", "description": "Invite a friend", "questType": "REFERRAL", "points": 15, "status": "COMPLETED"}
		]`),
		"GET /api/v1/quests/team086-1/profile": respond(200, `{
			"activityPoints": 55, "subscriptionTier": "PREMIUM", "questsCompleted": 4,
			"levelHistory": [{"level": 1, "pointsRequired": 0, "achievedAt": "2025-01-01T00:00:00Z"}, {"level": 2, "pointsRequired": 50, "achievedAt": "2025-02-01T00:00:00Z"}]
		}`),
		"GET /api/v1/quests/team086-1/rewards": respond(200, `[{"rewardId": "r1", "rewardType": "CASHBACK", "rewardCode": "CB3", "used": false}]`),
	})
	ctx := context.Background()

	current, err := client.CurrentQuest(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "Big transfer", current.Description)
	assert.Equal(t, "3% cashback", current.Prize)
	assert.True(t, current.Target.IsNumeric())
	assert.Equal(t, 25, current.Progress().Percent)

	available, err := client.AvailableQuests(ctx)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, domain.CategoryTarget(domain.TargetReferral), available[1].Target)
	assert.True(t, available[1].Completed)

	profile, err := client.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 55, profile.ActivePoints)
	assert.True(t, profile.IsPremium)
	assert.Equal(t, domain.LevelSilver, profile.Level)
	require.Len(t, profile.LevelHistory, 2)
	assert.Equal(t, domain.LevelSilver, profile.LevelHistory[1].Level)

	rewards, err := client.Rewards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Reward{{Code: "CB3", Description: "CASHBACK", Status: "active"}}, rewards)
}

func TestCurrentQuest_None(t *testing.T) {
	client, _ := newServer(t, map[string]func(http.ResponseWriter){
		"GET /api/v1/quests/team086-1/currentQuest": respond(200, `{"success": true, "message": "no active quests"}`),
	})

	current, err := client.CurrentQuest(context.Background())

	require.NoError(t, err)
	assert.Nil(t, current)
}
