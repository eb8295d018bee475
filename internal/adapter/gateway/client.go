package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/multibank-backend/internal/domain"
	"github.com/simaogato/multibank-backend/internal/metrics"
)

const maxBodyBytes = 4 << 20

// DefaultTimeout bounds every backend call
const DefaultTimeout = 10 * time.Second

// Client is the REST client for the Backend Gateway
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
	log     *zap.Logger

	mu sync.RWMutex
	// backend account id -> account, filled by CreateAccount and AggregateAccounts
	known map[string]wireAccount
}

var _ domain.Gateway = (*Client)(nil)

// NewClient creates a new Client. A nil httpClient gets DefaultTimeout.
func NewClient(baseURL, userID string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		http:    httpClient,
		log:     log,
		known:   make(map[string]wireAccount),
	}
}

// envelope is the common part of every backend object response
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// do sends one request and decodes the response into out. Non-2xx statuses
// and explicit failure envelopes become *domain.RemoteError. An empty body is
// a success acknowledgement and leaves out untouched.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordGatewayCall(op, time.Since(start), err)
		if err != nil {
			c.log.Warn("gateway call failed", zap.String("op", op), zap.Error(err))
		}
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.RemoteError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "read response: " + err.Error()}
	}
	raw = bytes.TrimSpace(raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(raw)
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.text() != "" {
			msg = env.text()
		}
		return failure(op, resp.StatusCode, msg)
	}

	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '{' {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil && env.Success != nil && !*env.Success {
			return failure(op, resp.StatusCode, env.text())
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "decode response: " + err.Error()}
	}
	return nil
}

func failure(op string, status int, msg string) error {
	if isAlreadyCompleted(msg) {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyCompleted, msg)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &domain.RemoteError{Op: op, StatusCode: status, Message: msg}
}

func isAlreadyCompleted(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "already completed") || strings.Contains(lower, "уже завершен")
}

func (c *Client) userPath(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(a))
	}
	return fmt.Sprintf(format, append([]any{url.PathEscape(c.userID)}, escaped...)...)
}

// CreateAccount opens an account at the given bank
func (c *Client) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	body := createAccountBody{
		BankType:       bankType(req.Bank),
		AccountType:    string(req.AccountType),
		InitialBalance: req.InitialBalance.String(),
	}
	var resp struct {
		Account wireAccount `json:"account"`
	}
	if err := c.do(ctx, "create_account", http.MethodPost, c.userPath("/accounts/%s/create"), body, &resp); err != nil {
		return domain.Account{}, err
	}

	acc := resp.Account.toDomain()
	if acc.Bank == "" {
		acc.Bank = req.Bank
	}
	c.rememberAccount(resp.Account)
	return acc, nil
}

// CloseAccount closes an account and moves the balance as requested
func (c *Client) CloseAccount(ctx context.Context, req domain.CloseAccountRequest) error {
	body := closeAccountBody{
		BankType:             bankType(req.Bank),
		AccountID:            req.AccountID,
		Action:               req.Action,
		DestinationAccountID: req.DestinationAccount,
	}
	return c.do(ctx, "close_account", http.MethodPut, c.userPath("/accounts/%s/close"), body, nil)
}

// AggregateAccounts loads every account across all banks
func (c *Client) AggregateAccounts(ctx context.Context) ([]domain.Account, error) {
	var resp struct {
		Accounts []wireAccount `json:"accounts"`
	}
	if err := c.do(ctx, "aggregate", http.MethodGet, c.userPath("/aggregate/%s"), nil, &resp); err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(resp.Accounts))
	for _, w := range resp.Accounts {
		c.rememberAccount(w)
		accounts = append(accounts, w.toDomain())
	}
	return accounts, nil
}

// ListTransactions loads the transaction history, optionally for one account number
func (c *Client) ListTransactions(ctx context.Context, accountNumber string) ([]domain.HistoryEntry, error) {
	var resp struct {
		Transactions []wireTransaction `json:"transactions"`
	}
	if err := c.do(ctx, "transactions", http.MethodGet, c.userPath("/transactions/%s"), nil, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(resp.Transactions))
	for _, w := range resp.Transactions {
		e := w.toDomain(c.accountNumber(w.AccountID))
		if accountNumber != "" && e.AccountNumber != accountNumber {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CreatePayment moves funds between two accounts
func (c *Client) CreatePayment(ctx context.Context, req domain.PaymentRequest) error {
	body := paymentBody{
		FromAccount:  req.FromAccount,
		ToAccount:    req.ToAccount,
		BankTypeFrom: c.bankOf(req.FromAccount),
		BankTypeTo:   c.bankOf(req.ToAccount),
		Amount:       wireAmount{Amount: req.Amount.String(), Currency: req.Currency},
		Description:  req.Description,
	}
	return c.do(ctx, "payment", http.MethodPost, c.userPath("/payments/%s"), body, nil)
}

// ProductCatalog loads the products offered by all banks
func (c *Client) ProductCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	var resp struct {
		Products []wireProduct `json:"products"`
	}
	if err := c.do(ctx, "catalog", http.MethodGet, "/products/catalog", nil, &resp); err != nil {
		return nil, err
	}

	entries := make([]domain.CatalogEntry, 0, len(resp.Products))
	for _, w := range resp.Products {
		entries = append(entries, w.toCatalogEntry())
	}
	return entries, nil
}

// ListProducts loads the user's products
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var resp struct {
		Products []wireProduct `json:"products"`
	}
	if err := c.do(ctx, "products", http.MethodGet, c.userPath("/products/%s"), nil, &resp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp.Products))
	for _, w := range resp.Products {
		products = append(products, w.toProduct())
	}
	return products, nil
}

// BuyProduct opens a product funded from an account
func (c *Client) BuyProduct(ctx context.Context, req domain.BuyProductRequest) error {
	body := buyProductBody{
		BankType:        bankType(req.Bank),
		ProductID:       req.ProductID,
		Amount:          req.Amount.String(),
		SourceAccountID: req.AccountNumber,
	}
	return c.do(ctx, "buy_product", http.MethodPost, c.userPath("/products/%s/buy"), body, nil)
}

// DeleteProduct closes a product, repaying to the given account
func (c *Client) DeleteProduct(ctx context.Context, req domain.DeleteProductRequest) error {
	body := deleteProductBody{
		BankType:           bankType(req.Bank),
		AgreementID:        req.AgreementID,
		RepaymentAccountID: req.RepaymentAccountID,
		RepaymentAmount:    req.Amount.String(),
	}
	return c.do(ctx, "delete_product", http.MethodDelete, c.userPath("/products/%s/delete"), body, nil)
}

// ListCards loads the user's cards as card products
func (c *Client) ListCards(ctx context.Context) ([]domain.Product, error) {
	var resp struct {
		Cards []wireCard `json:"cards"`
	}
	if err := c.do(ctx, "cards", http.MethodGet, c.userPath("/cards/%s"), nil, &resp); err != nil {
		return nil, err
	}

	cards := make([]domain.Product, 0, len(resp.Cards))
	for _, w := range resp.Cards {
		cards = append(cards, w.toProduct(c.accountID(w.AccountNumber)))
	}
	return cards, nil
}

// CreateCard issues a card on an account
func (c *Client) CreateCard(ctx context.Context, req domain.CreateCardRequest) error {
	body := createCardBody{
		BankType:      bankType(req.Bank),
		AccountNumber: req.AccountNumber,
		CardType:      req.CardType,
		CardName:      req.CardName,
	}
	return c.do(ctx, "create_card", http.MethodPost, c.userPath("/cards/%s/create"), body, nil)
}

// DeleteCard closes a card
func (c *Client) DeleteCard(ctx context.Context, cardID string) error {
	return c.do(ctx, "delete_card", http.MethodDelete, c.userPath("/cards/%s/%s", cardID), nil, nil)
}

// AvailableQuests lists the quests the user can take
func (c *Client) AvailableQuests(ctx context.Context) ([]domain.Quest, error) {
	var resp []wireQuest
	if err := c.do(ctx, "available_quests", http.MethodGet, c.userPath("/quests/%s/available"), nil, &resp); err != nil {
		return nil, err
	}

	quests := make([]domain.Quest, 0, len(resp))
	for _, w := range resp {
		quests = append(quests, w.toDomain())
	}
	return quests, nil
}

// CurrentQuest returns the active quest, or nil when none is assigned
func (c *Client) CurrentQuest(ctx context.Context) (*domain.Quest, error) {
	var resp struct {
		Quest *wireQuest `json:"quest"`
	}
	if err := c.do(ctx, "current_quest", http.MethodGet, c.userPath("/quests/%s/currentQuest"), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Quest == nil {
		return nil, nil
	}
	q := resp.Quest.toDomain()
	return &q, nil
}

// AssignQuest assigns a quest to the user
func (c *Client) AssignQuest(ctx context.Context, questID string) error {
	return c.do(ctx, "assign_quest", http.MethodPost, c.userPath("/quests/%s/assign/%s", questID), nil, nil)
}

// AssignFirstQuest assigns the first available quest
func (c *Client) AssignFirstQuest(ctx context.Context) error {
	return c.do(ctx, "assign_first_quest", http.MethodPost, c.userPath("/quests/%s/assignFirst"), nil, nil)
}

// CompleteQuest completes a quest. A quest already completed yields an
// error wrapping domain.ErrAlreadyCompleted.
func (c *Client) CompleteQuest(ctx context.Context, questID string) error {
	return c.do(ctx, "complete_quest", http.MethodPost, c.userPath("/quests/%s/complete/%s", questID), nil, nil)
}

// Profile loads the quest profile
func (c *Client) Profile(ctx context.Context) (domain.Profile, error) {
	var resp wireProfile
	if err := c.do(ctx, "profile", http.MethodGet, c.userPath("/quests/%s/profile"), nil, &resp); err != nil {
		return domain.Profile{}, err
	}
	return resp.toDomain(), nil
}

// Rewards lists the rewards activated by completed quests
func (c *Client) Rewards(ctx context.Context) ([]domain.Reward, error) {
	var resp []wireReward
	if err := c.do(ctx, "rewards", http.MethodGet, c.userPath("/quests/%s/rewards"), nil, &resp); err != nil {
		return nil, err
	}

	rewards := make([]domain.Reward, 0, len(resp))
	for _, w := range resp {
		rewards = append(rewards, w.toDomain())
	}
	return rewards, nil
}

func (c *Client) rememberAccount(w wireAccount) {
	if w.AccountID == "" || w.AccountNumber == "" {
		return
	}
	c.mu.Lock()
	c.known[w.AccountID] = w
	c.mu.Unlock()
}

func (c *Client) accountNumber(accountID string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.known[accountID].AccountNumber
}

// accountID returns the local id of the account with the given number
func (c *Client) accountID(number string) *uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, w := range c.known {
		if w.AccountNumber == number {
			local := localID("account", id)
			return &local
		}
	}
	return nil
}

func (c *Client) bankOf(number string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, w := range c.known {
		if w.AccountNumber == number {
			return w.Bank
		}
	}
	return ""
}
