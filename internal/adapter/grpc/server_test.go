package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/simaogato/multibank-backend/internal/adapter/repository/memory"
	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/ledger"
	"github.com/simaogato/multibank-backend/internal/usecase/account"
	"github.com/simaogato/multibank-backend/internal/usecase/dashboard"
	"github.com/simaogato/multibank-backend/internal/usecase/product"
	"github.com/simaogato/multibank-backend/internal/usecase/quest"
	"github.com/simaogato/multibank-backend/internal/usecase/seeder"
	"github.com/simaogato/multibank-backend/internal/usecase/transfer"
)

func newLocalServer() *Server {
	log := zap.NewNop()
	store := ledger.NewStore(ledger.Options{Currency: "RUB"})

	quests := quest.NewQuestService(store, memory.NewPremiumFlagRepository(), seeder.FreeQuests(), seeder.PremiumQuests(), log)

	return NewServer(
		store,
		account.NewAccountService(store, quests, log),
		transfer.NewTransferService(store, quests, log),
		product.NewProductService(store, quests, seeder.ProductCatalog(), log),
		quests,
		dashboard.NewDashboardService(store, quests, "RUB", dashboard.DefaultPageSize),
		log,
	)
}

func dial(t *testing.T, s *Server) *Client {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpclib.NewServer(grpclib.ChainUnaryInterceptor(LoggingInterceptor(zap.NewNop())))
	Register(srv, s)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewClient(conn)
}

func openAccount(t *testing.T, c *Client, bank string, balance string) map[string]any {
	t.Helper()
	resp, err := c.Call(context.Background(), "OpenAccount", map[string]any{
		"bank":            bank,
		"account_type":    "checking",
		"initial_balance": balance,
	})
	require.NoError(t, err)
	return resp["account"].(map[string]any)
}

func TestServer_LocalRoundTrip(t *testing.T) {
	c := dial(t, newLocalServer())
	ctx := context.Background()

	from := openAccount(t, c, "VBank", "1000")
	to := openAccount(t, c, "ABank", "0")

	resp, err := c.Call(ctx, "Transfer", map[string]any{
		"from_account_number": from["account_number"],
		"to_account_number":   to["account_number"],
		"amount":              "250",
		"description":         "rent",
	})
	require.NoError(t, err)
	assert.Equal(t, "750", resp["from"].(map[string]any)["balance"])
	assert.Equal(t, "250", resp["to"].(map[string]any)["balance"])
	assert.Equal(t, false, resp["external"])

	summary, err := c.Call(ctx, "GetSummary", nil)
	require.NoError(t, err)
	assert.Equal(t, "1000", summary["total_balance"])
	assert.Equal(t, "RUB", summary["currency"])
	assert.Equal(t, float64(2), summary["active_accounts"])

	accounts, err := c.Call(ctx, "ListAccounts", nil)
	require.NoError(t, err)
	assert.Len(t, accounts["accounts"], 2)

	history, err := c.Call(ctx, "GetHistory", map[string]any{"account_number": from["account_number"]})
	require.NoError(t, err)
	assert.NotEmpty(t, history["entries"])
	assert.Equal(t, float64(1), history["page"])

	catalog, err := c.Call(ctx, "GetCatalog", nil)
	require.NoError(t, err)
	assert.Len(t, catalog["products"], len(seeder.ProductCatalog()))

	state, err := c.Call(ctx, "GetQuestState", nil)
	require.NoError(t, err)
	assert.Len(t, state["free_quests"], len(seeder.FreeQuests()))
}

func TestServer_ErrorCodes(t *testing.T) {
	c := dial(t, newLocalServer())
	ctx := context.Background()

	from := openAccount(t, c, "VBank", "100")
	to := openAccount(t, c, "SBank", "0")

	tests := []struct {
		name   string
		method string
		req    map[string]any
		code   codes.Code
	}{
		{
			name:   "Missing amount",
			method: "Transfer",
			req:    map[string]any{"from_account_number": from["account_number"], "to_account_number": to["account_number"]},
			code:   codes.InvalidArgument,
		},
		{
			name:   "Insufficient funds",
			method: "Transfer",
			req:    map[string]any{"from_account_number": from["account_number"], "to_account_number": to["account_number"], "amount": "500"},
			code:   codes.FailedPrecondition,
		},
		{
			name:   "Same account",
			method: "Transfer",
			req:    map[string]any{"from_account_number": from["account_number"], "to_account_number": from["account_number"], "amount": "10"},
			code:   codes.FailedPrecondition,
		},
		{
			name:   "Malformed account id",
			method: "Deposit",
			req:    map[string]any{"account_id": "not-a-uuid", "amount": "10"},
			code:   codes.InvalidArgument,
		},
		{
			name:   "Unknown catalog entry",
			method: "OpenProduct",
			req:    map[string]any{"catalog_id": "missing", "amount": "1000", "source_account_id": from["id"]},
			code:   codes.NotFound,
		},
		{
			name:   "History page out of range",
			method: "GetHistory",
			req:    map[string]any{"page": 0},
			code:   codes.InvalidArgument,
		},
		{
			name:   "History page far out of range",
			method: "GetHistory",
			req:    map[string]any{"page": 1e300},
			code:   codes.InvalidArgument,
		},
		{
			name:   "Refresh without a backend",
			method: "Refresh",
			code:   codes.Unimplemented,
		},
		{
			name:   "Assign without a backend",
			method: "AssignQuest",
			code:   codes.Unimplemented,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Call(ctx, tt.method, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err), err.Error())
		})
	}
}

func TestServer_Deposit(t *testing.T) {
	c := dial(t, newLocalServer())
	acc := openAccount(t, c, "VBank", "0")

	resp, err := c.Call(context.Background(), "Deposit", map[string]any{
		"account_id": acc["id"],
		"amount":     120.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "120.5", resp["account"].(map[string]any)["balance"])
}

func TestServer_CompleteQuestByID(t *testing.T) {
	c := dial(t, newLocalServer())
	ctx := context.Background()

	_, err := c.Call(ctx, "CompleteQuest", map[string]any{"quest_id": "free-transfers"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Call(ctx, "CompleteQuest", map[string]any{"quest_id": "free-open-account"})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err, "repeat completion of the same quest is a success")
	}

	state, err := c.Call(ctx, "GetQuestState", nil)
	require.NoError(t, err)
	assert.Equal(t, "free-transfers", state["current"].(map[string]any)["id"])
	assert.Equal(t, float64(5), state["profile"].(map[string]any)["active_points"])
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("open: %w", domain.ErrValidation), codes.InvalidArgument},
		{fmt.Errorf("account: %w", domain.ErrNotFound), codes.NotFound},
		{domain.ErrInsufficientFunds, codes.FailedPrecondition},
		{domain.ErrSameAccount, codes.FailedPrecondition},
		{domain.ErrNoCurrentQuest, codes.FailedPrecondition},
		{&domain.RemoteError{Op: "transfer", StatusCode: 502, Message: "bad gateway"}, codes.Unavailable},
		{domain.ErrAlreadyCompleted, codes.AlreadyExists},
		{errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, status.Code(mapError(tt.err)), tt.err.Error())
	}
	assert.NoError(t, mapError(nil))
}
