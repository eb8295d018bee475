package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		wantErr bool
		errMsg  string
	}{
		{
			name: "Checking account with zero balance should pass",
			account: Account{
				ID:            uuid.New(),
				Bank:          "VBank",
				AccountType:   AccountTypeChecking,
				Balance:       decimal.Zero,
				AccountNumber: "4000123412341234",
				Currency:      "RUB",
			},
			wantErr: false,
		},
		{
			name: "Empty bank should fail",
			account: Account{
				ID:            uuid.New(),
				Bank:          "  ",
				AccountType:   AccountTypeChecking,
				AccountNumber: "4000123412341234",
				Currency:      "RUB",
			},
			wantErr: true,
			errMsg:  "bank cannot be empty",
		},
		{
			name: "Negative balance should fail",
			account: Account{
				ID:            uuid.New(),
				Bank:          "ABank",
				Balance:       decimal.NewFromInt(-1),
				AccountNumber: "4000123412341234",
				Currency:      "RUB",
			},
			wantErr: true,
			errMsg:  "cannot be negative",
		},
		{
			name: "Short account number should fail",
			account: Account{
				ID:            uuid.New(),
				Bank:          "SBank",
				AccountNumber: "4000",
				Currency:      "RUB",
			},
			wantErr: true,
			errMsg:  "16 digits",
		},
		{
			name: "Non digit account number should fail",
			account: Account{
				ID:            uuid.New(),
				Bank:          "SBank",
				AccountNumber: "4000abcd12341234",
				Currency:      "RUB",
			},
			wantErr: true,
			errMsg:  "16 digits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatAccountNumber(t *testing.T) {
	assert.Equal(t, "4000 1234 5678 9012", FormatAccountNumber("4000123456789012"))
	assert.Equal(t, "12345", FormatAccountNumber("12345"))
}

func TestAccount_IsProductBacked(t *testing.T) {
	productID := uuid.New()
	backed := Account{ProductID: &productID}
	plain := Account{}

	assert.True(t, backed.IsProductBacked())
	assert.False(t, plain.IsProductBacked())
}
