package dto

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
)

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	tests := []struct {
		name    string
		request CreateAccountRequest
		want    string
		wantErr bool
	}{
		{"omitted balance is zero", CreateAccountRequest{HolderName: "Ana"}, "0.00", false},
		{"rounds to cents", CreateAccountRequest{HolderName: "Ana", InitialBalance: "10.125"}, "10.13", false},
		{"rejects garbage", CreateAccountRequest{HolderName: "Ana", InitialBalance: "ten"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToUseCaseInput()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInitialBalance) {
					t.Fatalf("expected ErrInvalidInitialBalance, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.HolderName != "Ana" || domain.FormatMoney(got.InitialBalance) != tt.want {
				t.Fatalf("ToUseCaseInput() = %+v, want balance %s", got, tt.want)
			}
		})
	}
}

func TestCreateTransferRequest_ToUseCaseInput(t *testing.T) {
	tests := []struct {
		name        string
		request     *CreateTransferRequest
		wantAmount  decimal.Decimal
		expectError bool
	}{
		{
			name: "valid amount",
			request: &CreateTransferRequest{
				SourceAccountID:      "from",
				DestinationAccountID: "to",
				Amount:               "12.34",
			},
			wantAmount: decimal.RequireFromString("12.34"),
		},
		{
			name:        "invalid amount",
			request:     &CreateTransferRequest{Amount: "abc"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToUseCaseInput()
			if tt.expectError {
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.SourceAccountID != "from" || got.DestinationAccountID != "to" || !got.Amount.Equal(tt.wantAmount) {
				t.Fatalf("ToUseCaseInput() = %+v", got)
			}
		})
	}
}

func TestPostEntryRequest_ToUseCaseInput(t *testing.T) {
	req := &PostEntryRequest{Amount: " 5.5 ", Description: "deposit"}

	got, err := req.ToUseCaseInput("acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccountID != "acc-1" || domain.FormatMoney(got.Amount) != "5.50" || got.Description != "deposit" {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
}
