package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// QuestType represents the activity a quest rewards
type QuestType string

const (
	QuestTypeAccountOpening   QuestType = "ACCOUNT_OPENING"
	QuestTypeTransferAmount   QuestType = "TRANSFER_AMOUNT"
	QuestTypeProductPurchase  QuestType = "PRODUCT_PURCHASE"
	QuestTypeDepositAmount    QuestType = "DEPOSIT_AMOUNT"
	QuestTypePaymentOperation QuestType = "PAYMENT_OPERATION"
	QuestTypeReferral         QuestType = "REFERRAL"
	QuestTypeService          QuestType = "SERVICE_USAGE"
)

// TargetCategory is a symbolic quest target
type TargetCategory string

const (
	TargetNewAccount  TargetCategory = "new_account"
	TargetTransfers   TargetCategory = "transfers"
	TargetCreditCard  TargetCategory = "credit_card"
	TargetMobileBank  TargetCategory = "mobile_bank"
	TargetPayments    TargetCategory = "payments"
	TargetReferral    TargetCategory = "referral"
	TargetAutopayment TargetCategory = "autopayment"
	TargetAllServices TargetCategory = "all_services"
)

// categoryThresholds holds the progress count needed by counted categories
var categoryThresholds = map[TargetCategory]int64{
	TargetTransfers:   3,
	TargetMobileBank:  7,
	TargetPayments:    5,
	TargetAllServices: 5,
}

// Threshold returns the progress count the category needs.
// Categories completed only by an explicit flag report false.
func (c TargetCategory) Threshold() (int64, bool) {
	n, ok := categoryThresholds[c]
	return n, ok
}

// IsFlagOnly reports whether the category has no automatic progress source
// and completes only when marked from outside.
func (c TargetCategory) IsFlagOnly() bool {
	switch c {
	case TargetCreditCard, TargetReferral, TargetAutopayment:
		return true
	}
	return false
}

// Valid reports whether c is a known category
func (c TargetCategory) Valid() bool {
	switch c {
	case TargetNewAccount, TargetCreditCard, TargetReferral, TargetAutopayment:
		return true
	}
	_, ok := categoryThresholds[c]
	return ok
}

// QuestTarget is either a numeric threshold (Category empty) or a symbolic category
type QuestTarget struct {
	Amount   decimal.Decimal
	Category TargetCategory
}

// NumericTarget builds a numeric quest target
func NumericTarget(amount decimal.Decimal) QuestTarget {
	return QuestTarget{Amount: amount}
}

// CategoryTarget builds a symbolic quest target
func CategoryTarget(c TargetCategory) QuestTarget {
	return QuestTarget{Category: c}
}

// IsNumeric reports whether the target is a numeric threshold
func (t QuestTarget) IsNumeric() bool {
	return t.Category == ""
}

func (t QuestTarget) String() string {
	if t.IsNumeric() {
		return t.Amount.String()
	}
	return string(t.Category)
}

// Quest is a gamified task with a progress target and a reward
type Quest struct {
	ID              string
	Description     string
	Prize           string
	Target          QuestTarget
	CurrentProgress decimal.Decimal
	Completed       bool
	Points          int
	Type            QuestType
}

// Validate ensures the quest definition adheres to domain rules
func (q *Quest) Validate() error {
	if q.ID == "" {
		return validationErr("quest ID cannot be empty")
	}
	if q.Points < 0 {
		return validationErr("quest points cannot be negative")
	}
	if q.Target.IsNumeric() {
		if q.Target.Amount.LessThanOrEqual(decimal.Zero) {
			return validationErr("numeric quest target must be positive")
		}
	} else if !q.Target.Category.Valid() {
		return validationErr("unknown quest target " + string(q.Target.Category))
	}
	return nil
}

// CompletionContext carries the ledger facts some completion rules depend on
type CompletionContext struct {
	AccountCount int
}

// IsComplete reports whether the quest's completion condition holds
func (q *Quest) IsComplete(cc CompletionContext) bool {
	if q.Completed {
		return true
	}
	if q.Target.IsNumeric() {
		return q.CurrentProgress.GreaterThanOrEqual(q.Target.Amount)
	}

	switch q.Target.Category {
	case TargetNewAccount:
		return cc.AccountCount > 1
	case TargetCreditCard, TargetReferral, TargetAutopayment:
		return false
	}

	threshold, ok := q.Target.Category.Threshold()
	if !ok {
		return false
	}
	return q.CurrentProgress.GreaterThanOrEqual(decimal.NewFromInt(threshold))
}

// QuestProgress is the display form of a quest's progress
type QuestProgress struct {
	Current decimal.Decimal
	Target  decimal.Decimal
	Percent int
	Text    string
}

// Progress computes the display progress of a quest
func (q *Quest) Progress() QuestProgress {
	var current, target decimal.Decimal

	switch {
	case q.Target.IsNumeric():
		current, target = q.CurrentProgress, q.Target.Amount
	default:
		if threshold, ok := q.Target.Category.Threshold(); ok {
			current, target = q.CurrentProgress, decimal.NewFromInt(threshold)
		} else {
			target = decimal.NewFromInt(1)
			if q.Completed {
				current = target
			}
		}
	}

	if q.Completed && current.LessThan(target) {
		current = target
	}

	percent := 0
	if target.IsPositive() {
		percent = int(current.Mul(decimal.NewFromInt(100)).Div(target).IntPart())
	}
	if percent > 100 {
		percent = 100
	}

	return QuestProgress{
		Current: current,
		Target:  target,
		Percent: percent,
		Text:    fmt.Sprintf("%s/%s", current.String(), target.String()),
	}
}

// PrizeDisplayName returns the label shown for the quest reward
func (q *Quest) PrizeDisplayName() string {
	if q.Prize != "" {
		return q.Prize
	}
	if q.Points > 0 {
		return fmt.Sprintf("%d activity points", q.Points)
	}
	return "Secret reward"
}
