package dto

import (
	"time"

	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

// Amounts and balances are rendered as strings with two fractional digits.

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string    `json:"id"`
	HolderName     string    `json:"holder_name"`
	Balance        string    `json:"balance"`
	InitialBalance string    `json:"initial_balance"`
	Status         string    `json:"status"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		HolderName:     a.HolderName,
		Balance:        domain.FormatMoney(a.Balance),
		InitialBalance: domain.FormatMoney(a.InitialBalance),
		Status:         string(a.Status),
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// BalanceResponse is the current balance of an account.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// AvailabilityResponse answers whether an account covers an amount.
type AvailabilityResponse struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Balance   string `json:"balance"`
	Available bool   `json:"available"`
}

// AvailabilityFromUseCase converts an availability check to response.
func AvailabilityFromUseCase(a *usecase.Availability) *AvailabilityResponse {
	return &AvailabilityResponse{
		AccountID: a.AccountID,
		Amount:    domain.FormatMoney(a.Amount),
		Balance:   domain.FormatMoney(a.Balance),
		Available: a.Available,
	}
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	Key            string    `json:"key"`
	AccountID      string    `json:"account_id"`
	Type           string    `json:"type"`
	Amount         string    `json:"amount"`
	BalanceAfter   string    `json:"balance_after"`
	Description    string    `json:"description"`
	AccountVersion int64     `json:"account_version"`
	Reversed       bool      `json:"reversed"`
	ReversalOf     string    `json:"reversal_of,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	if e == nil {
		return nil
	}
	return &EntryResponse{
		Key:            e.Key,
		AccountID:      e.AccountID,
		Type:           e.Type.String(),
		Amount:         domain.FormatMoney(e.Amount),
		BalanceAfter:   domain.FormatMoney(e.BalanceAfter),
		Description:    e.Description,
		AccountVersion: e.AccountVersion,
		Reversed:       e.Reversed,
		ReversalOf:     e.ReversalOf,
		CreatedAt:      e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse is one page of history.
type ListEntriesResponse struct {
	Entries    []*EntryResponse `json:"entries"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// PostingResponse is the outcome of a credit or debit.
type PostingResponse struct {
	Balance string         `json:"balance"`
	Entry   *EntryResponse `json:"entry"`
}

// PostingFromUseCase converts a posting result to response.
func PostingFromUseCase(r *usecase.PostingResult) *PostingResponse {
	return &PostingResponse{
		Balance: domain.FormatMoney(r.Balance),
		Entry:   EntryFromDomain(r.Entry),
	}
}

// TransferResponse is the outcome of a transfer.
type TransferResponse struct {
	Success            bool           `json:"success"`
	Message            string         `json:"message"`
	SourceBalance      string         `json:"source_balance"`
	DestinationBalance string         `json:"destination_balance"`
	DebitEntry         *EntryResponse `json:"debit_entry"`
	CreditEntry        *EntryResponse `json:"credit_entry"`
}

// TransferFromUseCase converts a transfer result to response.
func TransferFromUseCase(r *usecase.TransferResult) *TransferResponse {
	return &TransferResponse{
		Success:            r.Success,
		Message:            r.Message,
		SourceBalance:      domain.FormatMoney(r.SourceBalance),
		DestinationBalance: domain.FormatMoney(r.DestinationBalance),
		DebitEntry:         EntryFromDomain(r.DebitEntry),
		CreditEntry:        EntryFromDomain(r.CreditEntry),
	}
}

// ReversalResponse is the outcome of a reversal.
type ReversalResponse struct {
	Message     string         `json:"message"`
	Balance     string         `json:"balance"`
	OriginalKey string         `json:"original_key"`
	Entry       *EntryResponse `json:"entry"`
}

// ReversalFromUseCase converts a reversal result to response.
func ReversalFromUseCase(r *usecase.ReversalResult) *ReversalResponse {
	return &ReversalResponse{
		Message:     r.Message,
		Balance:     domain.FormatMoney(r.Balance),
		OriginalKey: r.OriginalKey,
		Entry:       EntryFromDomain(r.Entry),
	}
}

// ReportResponse summarizes a period of one account.
type ReportResponse struct {
	AccountID    string    `json:"account_id"`
	Period       string    `json:"period"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	TotalCredits string    `json:"total_credits"`
	TotalDebits  string    `json:"total_debits"`
	Net          string    `json:"net"`
	Count        int       `json:"count"`
}

// ReportFromDomain converts domain report to response.
func ReportFromDomain(r *domain.Report) *ReportResponse {
	return &ReportResponse{
		AccountID:    r.AccountID,
		Period:       r.PeriodLabel,
		From:         r.From,
		To:           r.To,
		TotalCredits: domain.FormatMoney(r.TotalCredits),
		TotalDebits:  domain.FormatMoney(r.TotalDebits),
		Net:          domain.FormatMoney(r.Net),
		Count:        r.Count,
	}
}

// ReconciliationResponse is the result of replaying an account log.
type ReconciliationResponse struct {
	AccountID         string    `json:"account_id"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	RecordedVersion   int64     `json:"recorded_version"`
	ExpectedVersion   int64     `json:"expected_version"`
	EntryCount        int       `json:"entry_count"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   domain.FormatMoney(r.RecordedBalance),
		CalculatedBalance: domain.FormatMoney(r.CalculatedBalance),
		Difference:        domain.FormatMoney(r.Difference),
		RecordedVersion:   r.RecordedVersion,
		ExpectedVersion:   r.ExpectedVersion,
		EntryCount:        r.EntryCount,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
