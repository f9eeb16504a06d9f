package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

func TestAccountFromDomain_FormatsMoney(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	resp := AccountFromDomain(&domain.Account{
		ID:             "acc-1",
		HolderName:     "Ana",
		Balance:        decimal.RequireFromString("1249.5"),
		InitialBalance: decimal.RequireFromString("1000"),
		Status:         domain.AccountStatusActive,
		Version:        5,
		CreatedAt:      now,
		UpdatedAt:      now,
	})

	if resp.Balance != "1249.50" || resp.InitialBalance != "1000.00" {
		t.Fatalf("unexpected money formatting: %+v", resp)
	}
	if resp.Status != "active" || resp.Version != 5 {
		t.Fatalf("unexpected account fields: %+v", resp)
	}
}

func TestTransferFromUseCase_EncodesAsStrings(t *testing.T) {
	resp := TransferFromUseCase(&usecase.TransferResult{
		Success:            true,
		Message:            usecase.TransferCompletedMessage,
		SourceBalance:      decimal.NewFromInt(400),
		DestinationBalance: decimal.NewFromInt(400),
		DebitEntry:         &domain.Entry{Key: "k1", Type: domain.EntryTypeDebit, Amount: decimal.NewFromInt(300)},
		CreditEntry:        &domain.Entry{Key: "k2", Type: domain.EntryTypeCredit, Amount: decimal.NewFromInt(300)},
	})

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	body := string(raw)
	for _, want := range []string{`"source_balance":"400.00"`, `"type":"debit"`, `"amount":"300.00"`, `"success":true`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}

func TestEntryFromDomain_Nil(t *testing.T) {
	if EntryFromDomain(nil) != nil {
		t.Fatalf("expected nil response for nil entry")
	}
}
