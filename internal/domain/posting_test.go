package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPosting_Validate(t *testing.T) {
	accountA := AccountHolder(uuid.New())
	accountB := AccountHolder(uuid.New())
	deposit := ProductHolder(uuid.New())

	tests := []struct {
		name    string
		posting Posting
		wantErr bool
		errMsg  string
	}{
		{
			name: "Balanced transfer between two accounts should pass",
			posting: Posting{
				ID:          uuid.New(),
				Description: "Transfer",
				Date:        time.Now(),
				Legs: []PostingLeg{
					{Holder: accountA, Amount: decimal.NewFromInt(100), Type: EntryTypeDebit},
					{Holder: accountB, Amount: decimal.NewFromInt(100), Type: EntryTypeCredit},
				},
			},
			wantErr: false,
		},
		{
			name: "Split credit to account and deposit should pass",
			posting: Posting{
				ID:   uuid.New(),
				Date: time.Now(),
				Legs: []PostingLeg{
					// Debit 100, Credit 30 + 70 = 100
					{Holder: accountA, Amount: decimal.NewFromInt(100), Type: EntryTypeDebit},
					{Holder: accountB, Amount: decimal.NewFromInt(30), Type: EntryTypeCredit},
					{Holder: deposit, Amount: decimal.NewFromInt(70), Type: EntryTypeCredit},
				},
			},
			wantErr: false,
		},
		{
			name: "External deposit should pass",
			posting: Posting{
				ID:   uuid.New(),
				Date: time.Now(),
				Legs: []PostingLeg{
					{Holder: ExternalParty, Amount: decimal.NewFromInt(500), Type: EntryTypeDebit},
					{Holder: accountA, Amount: decimal.NewFromInt(500), Type: EntryTypeCredit},
				},
			},
			wantErr: false,
		},
		{
			name: "Unbalanced posting should fail",
			posting: Posting{
				ID:   uuid.New(),
				Date: time.Now(),
				Legs: []PostingLeg{
					{Holder: accountA, Amount: decimal.NewFromInt(100), Type: EntryTypeDebit},
					{Holder: accountB, Amount: decimal.NewFromInt(50), Type: EntryTypeCredit},
				},
			},
			wantErr: true,
			errMsg:  "sum of debits must equal sum of credits",
		},
		{
			name: "Single leg should fail",
			posting: Posting{
				ID: uuid.New(),
				Legs: []PostingLeg{
					{Holder: accountA, Amount: decimal.NewFromInt(100), Type: EntryTypeDebit},
				},
			},
			wantErr: true,
			errMsg:  "at least two legs",
		},
		{
			name: "Zero amount should fail",
			posting: Posting{
				ID: uuid.New(),
				Legs: []PostingLeg{
					{Holder: accountA, Amount: decimal.Zero, Type: EntryTypeDebit},
					{Holder: accountB, Amount: decimal.Zero, Type: EntryTypeCredit},
				},
			},
			wantErr: true,
			errMsg:  "amount must be positive",
		},
		{
			name: "Negative amount should fail",
			posting: Posting{
				ID: uuid.New(),
				Legs: []PostingLeg{
					{Holder: accountA, Amount: decimal.NewFromInt(-10), Type: EntryTypeDebit},
					{Holder: accountB, Amount: decimal.NewFromInt(-10), Type: EntryTypeCredit},
				},
			},
			wantErr: true,
			errMsg:  "amount must be positive",
		},
		{
			name: "Unknown leg type should fail",
			posting: Posting{
				ID: uuid.New(),
				Legs: []PostingLeg{
					{Holder: accountA, Amount: decimal.NewFromInt(10), Type: "SIDEWAYS"},
					{Holder: accountB, Amount: decimal.NewFromInt(10), Type: EntryTypeCredit},
				},
			},
			wantErr: true,
			errMsg:  "must be DEBIT or CREDIT",
		},
		{
			name: "Account leg without ID should fail",
			posting: Posting{
				ID: uuid.New(),
				Legs: []PostingLeg{
					{Holder: Holder{Kind: HolderAccount}, Amount: decimal.NewFromInt(10), Type: EntryTypeDebit},
					{Holder: accountB, Amount: decimal.NewFromInt(10), Type: EntryTypeCredit},
				},
			},
			wantErr: true,
			errMsg:  "must reference a holder ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.posting.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPosting_NetChange(t *testing.T) {
	from := AccountHolder(uuid.New())
	to := AccountHolder(uuid.New())

	p := NewPosting("Transfer", from, to, decimal.NewFromInt(250))

	assert.NoError(t, p.Validate())
	assert.True(t, p.NetChange(from).Equal(decimal.NewFromInt(-250)))
	assert.True(t, p.NetChange(to).Equal(decimal.NewFromInt(250)))
	assert.True(t, p.ExternalNet().IsZero())
}

func TestPosting_ExternalNet(t *testing.T) {
	account := AccountHolder(uuid.New())

	inflow := NewPosting("Top up", ExternalParty, account, decimal.NewFromInt(1000))
	outflow := NewPosting("Premium", account, ExternalParty, decimal.NewFromInt(299))

	assert.True(t, inflow.ExternalNet().Equal(decimal.NewFromInt(1000)))
	assert.True(t, outflow.ExternalNet().Equal(decimal.NewFromInt(-299)))
}
