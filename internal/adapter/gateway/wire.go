package gateway

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/multibank-backend/internal/domain"
)

// Local ids for backend objects are name-based so they survive reloads
var idNamespace = uuid.MustParse("6f1c2a0e-5b7d-4e2a-9c3f-0d8e4b1a7c55")

func localID(kind, backendID string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(kind+":"+backendID))
}

var banks = map[string]string{
	"VBANK": "VBank",
	"ABANK": "ABank",
	"SBANK": "SBank",
}

// bankType converts a display name to the backend enum, "VBank" -> "VBANK"
func bankType(bank string) string {
	return strings.ToUpper(strings.TrimSpace(bank))
}

// displayBank converts the backend enum to a display name, "VBANK" -> "VBank"
func displayBank(bankType string) string {
	if name, ok := banks[strings.ToUpper(bankType)]; ok {
		return name
	}
	return bankType
}

type createAccountBody struct {
	BankType       string `json:"bankType"`
	AccountType    string `json:"accountType"`
	InitialBalance string `json:"initialBalance"`
}

type closeAccountBody struct {
	BankType             string `json:"bankType"`
	AccountID            string `json:"accountId"`
	Action               string `json:"action"`
	DestinationAccountID string `json:"destination_account_id"`
}

type wireAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type paymentBody struct {
	FromAccount  string     `json:"fromAccount"`
	ToAccount    string     `json:"toAccount"`
	BankTypeFrom string     `json:"bankTypeFrom,omitempty"`
	BankTypeTo   string     `json:"bankTypeTo,omitempty"`
	Amount       wireAmount `json:"amount"`
	Description  string     `json:"description,omitempty"`
}

type buyProductBody struct {
	BankType        string `json:"bankType"`
	ProductID       string `json:"productId"`
	Amount          string `json:"amount"`
	SourceAccountID string `json:"sourceAccountId"`
}

type deleteProductBody struct {
	BankType           string `json:"bankType"`
	AgreementID        string `json:"agreementId"`
	RepaymentAccountID string `json:"repaymentAccountId"`
	RepaymentAmount    string `json:"repaymentAmount"`
}

type createCardBody struct {
	BankType      string `json:"bankType"`
	AccountNumber string `json:"accountNumber"`
	CardType      string `json:"cardType"`
	CardName      string `json:"cardName"`
}

type wireAccount struct {
	AccountID        string              `json:"accountId"`
	Bank             string              `json:"bank"`
	AccountNumber    string              `json:"accountNumber"`
	Currency         string              `json:"currency"`
	AccountSubType   string              `json:"accountSubType"`
	AvailableBalance decimal.NullDecimal `json:"availableBalance"`
}

func (w wireAccount) toDomain() domain.Account {
	accountType := domain.AccountType(strings.ToLower(w.AccountSubType))
	switch accountType {
	case domain.AccountTypeChecking, domain.AccountTypeSavings, domain.AccountTypeCard:
	default:
		accountType = domain.AccountTypeChecking
	}

	currency := w.Currency
	if currency == "" {
		currency = "RUB"
	}

	return domain.Account{
		ID:            localID("account", w.AccountID),
		Bank:          displayBank(w.Bank),
		AccountType:   accountType,
		Balance:       w.AvailableBalance.Decimal,
		AccountNumber: w.AccountNumber,
		Currency:      currency,
		ExternalID:    w.AccountID,
	}
}

type wireTransaction struct {
	TransactionID          string     `json:"transactionId"`
	AccountID              string     `json:"accountId"`
	Amount                 wireAmount `json:"amount"`
	CreditDebitIndicator   string     `json:"creditDebitIndicator"`
	BookingDateTime        time.Time  `json:"bookingDateTime"`
	TransactionInformation string     `json:"transactionInformation"`
	BankType               string     `json:"bankType"`
}

// toDomain signs the amount from the account's point of view: debits are negative
func (w wireTransaction) toDomain(accountNumber string) domain.HistoryEntry {
	amount, err := decimal.NewFromString(w.Amount.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	if strings.EqualFold(w.CreditDebitIndicator, "debit") && amount.IsPositive() {
		amount = amount.Neg()
	}

	description := w.TransactionInformation
	if description == "" {
		description = "Transaction"
	}
	currency := w.Amount.Currency
	if currency == "" {
		currency = "RUB"
	}

	return domain.HistoryEntry{
		Date:          w.BookingDateTime,
		Kind:          domain.HistoryKindTransfer,
		Description:   description,
		AccountNumber: accountNumber,
		Amount:        amount,
		Bank:          displayBank(w.BankType),
		Currency:      currency,
	}
}

type wireProduct struct {
	ProductID    string              `json:"productId"`
	AgreementID  string              `json:"agreementId"`
	ProductType  string              `json:"productType"`
	ProductName  string              `json:"productName"`
	InterestRate string              `json:"interestRate"`
	MinAmount    decimal.NullDecimal `json:"minAmount"`
	MaxAmount    decimal.NullDecimal `json:"maxAmount"`
	Amount       decimal.NullDecimal `json:"amount"`
	TermMonth    int                 `json:"termMonth"`
	BankType     string              `json:"bankType"`
	Status       string              `json:"status"`
}

func productType(s string) domain.ProductType {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "deposit"):
		return domain.ProductTypeDeposit
	case strings.Contains(lower, "card"):
		return domain.ProductTypeCard
	case strings.Contains(lower, "credit"):
		return domain.ProductTypeCredit
	case strings.Contains(lower, "loan"):
		return domain.ProductTypeLoan
	default:
		return domain.ProductType(lower)
	}
}

func (w wireProduct) rate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(w.InterestRate), "%"))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (w wireProduct) toCatalogEntry() domain.CatalogEntry {
	return domain.CatalogEntry{
		ID:         w.ProductID,
		Type:       productType(w.ProductType),
		Name:       w.ProductName,
		Bank:       displayBank(w.BankType),
		Rate:       w.rate(),
		TermMonths: w.TermMonth,
		MinAmount:  w.MinAmount.Decimal,
		MaxAmount:  w.MaxAmount.Decimal,
	}
}

// toProduct maps an owned product. Backends that omit the amount report the
// principal in minAmount.
func (w wireProduct) toProduct() domain.Product {
	external := w.AgreementID
	if external == "" {
		external = w.ProductID
	}
	amount := w.MinAmount.Decimal
	if w.Amount.Valid {
		amount = w.Amount.Decimal
	}
	status := domain.ProductStatus(strings.ToUpper(w.Status))
	if status == "" {
		status = domain.ProductStatusActive
	}

	return domain.Product{
		ID:         localID("product", external),
		CatalogID:  w.ProductID,
		Type:       productType(w.ProductType),
		Name:       w.ProductName,
		Amount:     amount,
		Rate:       w.rate(),
		Status:     status,
		Bank:       displayBank(w.BankType),
		TermMonths: w.TermMonth,
		ExternalID: external,
	}
}

type wireCard struct {
	CardID        string `json:"cardId"`
	CardName      string `json:"cardName"`
	CardType      string `json:"cardType"`
	Status        string `json:"status"`
	AccountNumber string `json:"accountNumber"`
	BankType      string `json:"bankType"`
}

func (w wireCard) toProduct(linked *uuid.UUID) domain.Product {
	status := domain.ProductStatusInactive
	if strings.EqualFold(w.Status, "active") {
		status = domain.ProductStatusActive
	}
	name := w.CardName
	if name == "" {
		name = "Card"
	}

	return domain.Product{
		ID:              localID("card", w.CardID),
		Type:            domain.ProductTypeCard,
		Name:            name,
		Status:          status,
		Bank:            displayBank(w.BankType),
		LinkedAccountID: linked,
		ExternalID:      w.CardID,
	}
}

type wireQuest struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	QuestType       string              `json:"questType"`
	Points          int                 `json:"points"`
	MinAmount       decimal.NullDecimal `json:"minAmount"`
	CurrentProgress decimal.NullDecimal `json:"currentProgress"`
	Completed       bool                `json:"completed"`
	Status          string              `json:"status"`
	Rewards         map[string]string   `json:"rewards"`
}

// categories maps quest types without an amount to the counted target they track
var categories = map[domain.QuestType]domain.TargetCategory{
	domain.QuestTypeAccountOpening:   domain.TargetNewAccount,
	domain.QuestTypeTransferAmount:   domain.TargetTransfers,
	domain.QuestTypePaymentOperation: domain.TargetPayments,
	domain.QuestTypeReferral:         domain.TargetReferral,
	domain.QuestTypeProductPurchase:  domain.TargetCreditCard,
	domain.QuestTypeService:          domain.TargetMobileBank,
}

func (w wireQuest) toDomain() domain.Quest {
	questType := domain.QuestType(strings.ToUpper(w.QuestType))

	target := domain.CategoryTarget(domain.TargetAllServices)
	if w.MinAmount.Valid && w.MinAmount.Decimal.IsPositive() {
		target = domain.NumericTarget(w.MinAmount.Decimal)
	} else if c, ok := categories[questType]; ok {
		target = domain.CategoryTarget(c)
	}

	description := w.Description
	if description == "" {
		description = w.Title
	}
	prize := w.Rewards["description"]
	if prize == "" {
		prize = w.Rewards["prize"]
	}

	return domain.Quest{
		ID:              w.ID,
		Description:     description,
		Prize:           prize,
		Target:          target,
		CurrentProgress: w.CurrentProgress.Decimal,
		Completed:       w.Completed || strings.EqualFold(w.Status, "completed"),
		Points:          w.Points,
		Type:            questType,
	}
}

type wireLevel struct {
	Level          int       `json:"level"`
	AchievedAt     time.Time `json:"achievedAt"`
	PointsRequired int       `json:"pointsRequired"`
}

type wireProfile struct {
	ActivityPoints   int         `json:"activityPoints"`
	SubscriptionTier string      `json:"subscriptionTier"`
	QuestsCompleted  int         `json:"questsCompleted"`
	LevelHistory     []wireLevel `json:"levelHistory"`
}

var levels = map[int]domain.Level{
	1: domain.LevelBronze,
	2: domain.LevelSilver,
	3: domain.LevelGold,
}

func (w wireProfile) toDomain() domain.Profile {
	history := make([]domain.LevelChange, 0, len(w.LevelHistory))
	for _, l := range w.LevelHistory {
		level, ok := levels[l.Level]
		if !ok {
			level = domain.LevelForPoints(l.PointsRequired)
		}
		history = append(history, domain.LevelChange{Level: level, Points: l.PointsRequired, AchievedAt: l.AchievedAt})
	}

	return domain.Profile{
		ActivePoints:    w.ActivityPoints,
		IsPremium:       strings.EqualFold(w.SubscriptionTier, "premium"),
		QuestsCompleted: w.QuestsCompleted,
		Level:           domain.LevelForPoints(w.ActivityPoints),
		LevelHistory:    history,
	}
}

type wireReward struct {
	RewardID   string `json:"rewardId"`
	RewardType string `json:"rewardType"`
	RewardCode string `json:"rewardCode"`
	Used       bool   `json:"used"`
}

func (w wireReward) toDomain() domain.Reward {
	code := w.RewardCode
	if code == "" {
		code = w.RewardID
	}
	status := "active"
	if w.Used {
		status = "used"
	}
	return domain.Reward{Code: code, Description: w.RewardType, Status: status}
}
