package grpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/usecase/account"
	"github.com/simaogato/multibank-backend/internal/usecase/dashboard"
	"github.com/simaogato/multibank-backend/internal/usecase/product"
	"github.com/simaogato/multibank-backend/internal/usecase/quest"
	"github.com/simaogato/multibank-backend/internal/usecase/remote"
	"github.com/simaogato/multibank-backend/internal/usecase/transfer"
)

// Server implements the View Layer service. In the local mode commands run
// against the in-memory ledger; once WithRemote is applied they go to the
// Backend Gateway instead.
type Server struct {
	AccountService   *account.AccountService
	TransferService  *transfer.TransferService
	ProductService   *product.ProductService
	QuestService     *quest.QuestService
	DashboardService *dashboard.DashboardService
	Ledger           domain.Ledger
	Log              *zap.Logger

	RemoteService *remote.RemoteService
	Refresher     *dashboard.Refresher
}

// NewServer creates a new gRPC server instance
func NewServer(
	ledger domain.Ledger,
	accountService *account.AccountService,
	transferService *transfer.TransferService,
	productService *product.ProductService,
	questService *quest.QuestService,
	dashboardService *dashboard.DashboardService,
	log *zap.Logger,
) *Server {
	return &Server{
		AccountService:   accountService,
		TransferService:  transferService,
		ProductService:   productService,
		QuestService:     questService,
		DashboardService: dashboardService,
		Ledger:           ledger,
		Log:              log,
	}
}

// WithRemote switches the commands to the API-backed mode
func (s *Server) WithRemote(remoteService *remote.RemoteService, refresher *dashboard.Refresher) *Server {
	s.RemoteService = remoteService
	s.Refresher = refresher
	return s
}

func (s *Server) remote() bool {
	return s.RemoteService != nil
}

func localOnly(method string) error {
	return status.Errorf(codes.Unimplemented, "%s is not available in api mode", method)
}

func remoteOnly(method string) error {
	return status.Errorf(codes.Unimplemented, "%s is only available in api mode", method)
}

// GetSummary handles the GetSummary RPC
func (s *Server) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	summary, err := s.DashboardService.GetSummary(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	var progress any
	if summary.Progress != nil {
		progress = map[string]any{"percent": summary.Progress.Percent, "text": summary.Progress.Text}
	}
	return respond(map[string]any{
		"total_balance":    summary.TotalBalance.String(),
		"currency":         summary.Currency,
		"active_accounts":  summary.ActiveAccounts,
		"products":         summary.Products,
		"current_quest":    questMap(summary.CurrentQuest),
		"progress":         progress,
		"level":            string(summary.Level.Level),
		"level_min_points": summary.Level.MinPoints,
		"level_max_points": summary.Level.MaxPoints,
		"active_points":    summary.ActivePoints,
		"is_premium":       summary.IsPremium,
	})
}

// ListAccounts handles the ListAccounts RPC
func (s *Server) ListAccounts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return respond(map[string]any{"accounts": accountList(s.Ledger.ListAccounts())})
}

// ListProducts handles the ListProducts RPC
func (s *Server) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return respond(map[string]any{"products": productList(s.Ledger.ListProducts())})
}

// GetHistory handles the GetHistory RPC. Fields: account_number (optional), page (1-based, default 1).
func (s *Server) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	page, err := s.DashboardService.GetHistory(ctx, optString(req, "account_number"), optInt(req, "page", 1))
	if err != nil {
		return nil, mapError(err)
	}
	return respond(map[string]any{
		"entries": historyList(page.Entries),
		"total":   page.Total,
		"page":    page.Page,
		"pages":   page.Pages,
	})
}

// GetQuestState handles the GetQuestState RPC
func (s *Server) GetQuestState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.remote() {
		return respond(map[string]any{
			"current":   questMap(s.Refresher.CurrentQuest()),
			"available": questList(s.Refresher.AvailableQuests()),
			"profile":   profileMap(s.Refresher.Profile()),
		})
	}

	snap := s.QuestService.Snapshot()
	return respond(map[string]any{
		"phase":                    string(snap.Phase),
		"current":                  questMap(snap.Current),
		"current_free_quest_index": snap.State.CurrentFreeQuestIndex,
		"free_quests":              questList(snap.State.FreeQuests),
		"premium_quests":           questList(snap.State.PremiumQuests),
		"profile":                  profileMap(snap.Profile),
	})
}

// GetCatalog handles the GetCatalog RPC
func (s *Server) GetCatalog(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.remote() {
		entries, err := s.RemoteService.Catalog(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return respond(map[string]any{"products": catalogList(entries)})
	}
	return respond(map[string]any{"products": catalogList(s.ProductService.Catalog())})
}

// OpenAccount handles the OpenAccount RPC. Fields: bank, account_type, initial_balance.
func (s *Server) OpenAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	bank, err := reqString(req, "bank")
	if err != nil {
		return nil, err
	}
	balance, err := optDecimal(req, "initial_balance")
	if err != nil {
		return nil, err
	}
	accountType := domain.AccountType(optString(req, "account_type"))

	var acc domain.Account
	if s.remote() {
		acc, err = s.RemoteService.OpenAccount(ctx, bank, accountType, balance)
	} else {
		acc, err = s.AccountService.OpenAccount(ctx, account.OpenAccountInput{
			Bank:           bank,
			AccountType:    accountType,
			InitialBalance: balance,
		})
	}
	if err != nil {
		return nil, mapError(err)
	}
	return respond(map[string]any{"account": accountMap(acc)})
}

// CloseAccount handles the CloseAccount RPC. Fields: account_id, destination_account_id.
func (s *Server) CloseAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	accountID, err := reqUUID(req, "account_id")
	if err != nil {
		return nil, err
	}
	destinationID, err := reqUUID(req, "destination_account_id")
	if err != nil {
		return nil, err
	}

	if s.remote() {
		err = s.RemoteService.CloseAccount(ctx, accountID, destinationID)
	} else {
		err = s.AccountService.CloseAccount(ctx, accountID, destinationID)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return respond(map[string]any{"closed_account_id": accountID.String()})
}

// Deposit handles the Deposit RPC. Fields: account_id, amount, description.
func (s *Server) Deposit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.remote() {
		return nil, localOnly("Deposit")
	}
	accountID, err := reqUUID(req, "account_id")
	if err != nil {
		return nil, err
	}
	amount, err := reqDecimal(req, "amount")
	if err != nil {
		return nil, err
	}

	acc, err := s.AccountService.Deposit(ctx, accountID, amount, optString(req, "description"))
	if err != nil {
		return nil, mapError(err)
	}
	return respond(map[string]any{"account": accountMap(acc)})
}

// Transfer handles the Transfer RPC. Fields: from_account_number, to_account_number,
// amount, description, allow_external.
func (s *Server) Transfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	from, err := reqString(req, "from_account_number")
	if err != nil {
		return nil, err
	}
	to, err := reqString(req, "to_account_number")
	if err != nil {
		return nil, err
	}
	amount, err := reqDecimal(req, "amount")
	if err != nil {
		return nil, err
	}
	description := optString(req, "description")

	if s.remote() {
		if err := s.RemoteService.Transfer(ctx, from, to, amount, description); err != nil {
			return nil, mapError(err)
		}
		return respond(map[string]any{"amount": amount.String(), "external": false})
	}

	result, err := s.TransferService.Transfer(ctx, transfer.TransferInput{
		FromAccountNumber: from,
		ToAccountNumber:   to,
		Amount:            amount,
		Description:       description,
		AllowExternal:     optBool(req, "allow_external"),
	})
	if err != nil {
		return nil, mapError(err)
	}

	var toAccount any
	if result.To != nil {
		toAccount = accountMap(*result.To)
	}
	return respond(map[string]any{
		"from":     accountMap(result.From),
		"to":       toAccount,
		"amount":   result.Amount.String(),
		"external": result.External,
	})
}

// OpenProduct handles the OpenProduct RPC. Fields: catalog_id, amount, source_account_id.
func (s *Server) OpenProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	catalogID, err := reqString(req, "catalog_id")
	if err != nil {
		return nil, err
	}
	amount, err := optDecimal(req, "amount")
	if err != nil {
		return nil, err
	}
	sourceID, err := reqUUID(req, "source_account_id")
	if err != nil {
		return nil, err
	}

	if s.remote() {
		source, ok := s.Ledger.GetAccountByID(sourceID)
		if !ok {
			return nil, status.Errorf(codes.NotFound, "account %s not found", sourceID)
		}
		err := s.RemoteService.OpenProduct(ctx, remote.OpenProductInput{
			CatalogID:     catalogID,
			Amount:        amount,
			AccountNumber: source.AccountNumber,
		})
		if err != nil {
			return nil, mapError(err)
		}
		return respond(map[string]any{"catalog_id": catalogID})
	}

	p, err := s.ProductService.OpenProduct(ctx, product.OpenProductInput{
		CatalogID:       catalogID,
		Amount:          amount,
		SourceAccountID: sourceID,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return respond(map[string]any{"catalog_id": catalogID, "product": productMap(p)})
}

// CloseProduct handles the CloseProduct RPC. Fields: product_id, repayment_account_id.
func (s *Server) CloseProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	productID, err := reqUUID(req, "product_id")
	if err != nil {
		return nil, err
	}
	repaymentID, err := optUUID(req, "repayment_account_id")
	if err != nil {
		return nil, err
	}

	if s.remote() {
		err = s.RemoteService.CloseProduct(ctx, productID, repaymentID)
	} else {
		err = s.ProductService.CloseProduct(ctx, product.CloseProductInput{
			ProductID:          productID,
			RepaymentAccountID: repaymentID,
		})
	}
	if err != nil {
		return nil, mapError(err)
	}
	return respond(map[string]any{"closed_product_id": productID.String()})
}

// AssignQuest handles the AssignQuest RPC. Fields: quest_id (empty assigns the first available).
func (s *Server) AssignQuest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if !s.remote() {
		return nil, remoteOnly("AssignQuest")
	}
	if err := s.RemoteService.AssignQuest(ctx, optString(req, "quest_id")); err != nil {
		return nil, mapError(err)
	}
	return s.GetQuestState(ctx, nil)
}

// CompleteQuest handles the CompleteQuest RPC. Fields: quest_id (optional,
// must name the current quest in the local mode). A quest that is already
// completed is reported as success with the refreshed state.
func (s *Server) CompleteQuest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	questID := optString(req, "quest_id")

	if s.remote() {
		if err := s.RemoteService.CompleteQuest(ctx, questID); err != nil {
			return nil, mapError(err)
		}
		return s.GetQuestState(ctx, nil)
	}

	var err error
	if questID == "" {
		_, err = s.QuestService.CompleteQuest(ctx)
	} else {
		_, err = s.QuestService.CompleteQuestByID(ctx, questID)
	}
	if err != nil && !errors.Is(err, domain.ErrAlreadyCompleted) {
		return nil, mapError(err)
	}
	return s.GetQuestState(ctx, nil)
}

// ClaimQuest handles the ClaimQuest RPC: the current quest is completed only
// when its conditions are met
func (s *Server) ClaimQuest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.remote() {
		return nil, localOnly("ClaimQuest")
	}
	result, err := s.QuestService.ClaimQuest(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return respond(map[string]any{
		"quest":            questMap(&result.Quest),
		"complete":         result.Complete,
		"progress_percent": result.Progress.Percent,
		"progress_text":    result.Progress.Text,
	})
}

// MarkQuestCompleted handles the MarkQuestCompleted RPC, the injection point
// for targets without an automatic progress source. Fields: category.
func (s *Server) MarkQuestCompleted(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.remote() {
		return nil, localOnly("MarkQuestCompleted")
	}
	category, err := reqString(req, "category")
	if err != nil {
		return nil, err
	}
	if _, err := s.QuestService.MarkCompleted(ctx, domain.TargetCategory(category)); err != nil {
		return nil, mapError(err)
	}
	return s.GetQuestState(ctx, nil)
}

// PurchasePremium handles the PurchasePremium RPC. Fields: account_id.
func (s *Server) PurchasePremium(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.remote() {
		return nil, localOnly("PurchasePremium")
	}
	accountID, err := reqUUID(req, "account_id")
	if err != nil {
		return nil, err
	}
	if err := s.QuestService.PurchasePremium(ctx, accountID); err != nil {
		return nil, mapError(err)
	}
	return s.GetQuestState(ctx, nil)
}

// Refresh handles the Refresh RPC: reload every slice from the backend
func (s *Server) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if !s.remote() {
		return nil, remoteOnly("Refresh")
	}

	report := s.Refresher.Refresh(ctx)
	failed := map[string]any{}
	for slice, err := range map[string]error{
		"accounts": report.Accounts,
		"products": report.Products,
		"history":  report.History,
		"quests":   report.Quests,
		"profile":  report.Profile,
	} {
		if err != nil {
			failed[slice] = err.Error()
		}
	}
	return respond(map[string]any{"failed": failed})
}
