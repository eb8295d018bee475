package domain

import "github.com/shopspring/decimal"

// ActivityKind names a ledger event that can advance a quest
type ActivityKind string

const (
	ActivityTransfer        ActivityKind = "transfer"
	ActivityPayment         ActivityKind = "payment" // value left the ledger to an external party
	ActivityAccountOpened   ActivityKind = "account_opened"
	ActivityProductOpened   ActivityKind = "product_opened"
	ActivityDepositOpened   ActivityKind = "deposit_opened"
	ActivityPremiumPurchase ActivityKind = "premium_purchase"
)

// Activity is a committed ledger event
type Activity struct {
	Kind        ActivityKind
	Amount      decimal.Decimal
	ProductType ProductType
}

// ActivityRecorder receives committed ledger events
type ActivityRecorder interface {
	RecordActivity(a Activity)
}
