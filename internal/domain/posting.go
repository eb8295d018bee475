package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType represents the direction of a posting leg
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"  // value leaves the holder
	EntryTypeCredit EntryType = "CREDIT" // value arrives at the holder
)

// HolderKind represents what a posting leg moves value in or out of
type HolderKind string

const (
	HolderAccount  HolderKind = "ACCOUNT"
	HolderProduct  HolderKind = "PRODUCT"
	HolderExternal HolderKind = "EXTERNAL"
)

// Holder identifies the owner of a posting leg
type Holder struct {
	Kind HolderKind
	ID   uuid.UUID
}

// ExternalParty is the world outside the ledger: deposits come from it,
// external transfers, fees and loan repayments go to it.
var ExternalParty = Holder{Kind: HolderExternal}

// AccountHolder returns the holder for an account
func AccountHolder(id uuid.UUID) Holder {
	return Holder{Kind: HolderAccount, ID: id}
}

// ProductHolder returns the holder for a product principal
func ProductHolder(id uuid.UUID) Holder {
	return Holder{Kind: HolderProduct, ID: id}
}

// Posting is a balanced movement of value between holders
type Posting struct {
	ID          uuid.UUID
	Description string
	Date        time.Time
	Legs        []PostingLeg
}

// PostingLeg is a single side of a posting
type PostingLeg struct {
	Holder Holder
	Amount decimal.Decimal // ABSOLUTE VALUE (Always Positive)
	Type   EntryType
}

// NewPosting builds a two-leg posting moving amount from one holder to another
func NewPosting(description string, from, to Holder, amount decimal.Decimal) *Posting {
	return &Posting{
		ID:          uuid.New(),
		Description: description,
		Date:        time.Now(),
		Legs: []PostingLeg{
			{Holder: from, Amount: amount, Type: EntryTypeDebit},
			{Holder: to, Amount: amount, Type: EntryTypeCredit},
		},
	}
}

// Validate ensures the posting adheres to domain rules.
// Sum of debits must equal sum of credits so that value is never created
// or destroyed inside the ledger.
func (p *Posting) Validate() error {
	if len(p.Legs) < 2 {
		return validationErr("posting must have at least two legs")
	}

	var totalDebits decimal.Decimal
	var totalCredits decimal.Decimal

	for _, leg := range p.Legs {
		if leg.Amount.LessThanOrEqual(decimal.Zero) {
			return validationErr("posting leg amount must be positive (absolute value)")
		}

		switch leg.Holder.Kind {
		case HolderAccount, HolderProduct:
			if leg.Holder.ID == uuid.Nil {
				return validationErr("posting leg must reference a holder ID")
			}
		case HolderExternal:
		default:
			return validationErr("posting leg holder must be ACCOUNT, PRODUCT or EXTERNAL")
		}

		switch leg.Type {
		case EntryTypeDebit:
			totalDebits = totalDebits.Add(leg.Amount)
		case EntryTypeCredit:
			totalCredits = totalCredits.Add(leg.Amount)
		default:
			return validationErr("posting leg type must be DEBIT or CREDIT")
		}
	}

	if !totalDebits.Equal(totalCredits) {
		return validationErr("sum of debits must equal sum of credits")
	}

	return nil
}

// NetChange returns the signed change the posting applies to a holder
func (p *Posting) NetChange(h Holder) decimal.Decimal {
	net := decimal.Zero
	for _, leg := range p.Legs {
		if leg.Holder != h {
			continue
		}
		if leg.Type == EntryTypeCredit {
			net = net.Add(leg.Amount)
		} else {
			net = net.Sub(leg.Amount)
		}
	}
	return net
}

// ExternalNet returns the value the posting brings into the ledger from outside
// (positive) or sends out of it (negative).
func (p *Posting) ExternalNet() decimal.Decimal {
	return p.NetChange(ExternalParty).Neg()
}
