package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	HolderName     string `json:"holder_name"`
	InitialBalance string `json:"initial_balance,omitempty"`
}

// ToUseCaseInput converts to use case input. An omitted opening balance is zero.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	balance := decimal.Zero
	if r.InitialBalance != "" {
		parsed, err := domain.ParseMoney(r.InitialBalance)
		if err != nil {
			return usecase.CreateAccountInput{}, domain.ErrInvalidInitialBalance
		}
		balance = parsed
	}

	return usecase.CreateAccountInput{
		HolderName:     r.HolderName,
		InitialBalance: balance,
	}, nil
}

// PostEntryRequest is the body of a credit or debit.
type PostEntryRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input for accountID.
func (r *PostEntryRequest) ToUseCaseInput(accountID string) (usecase.PostEntryInput, error) {
	amount, err := domain.ParseMoney(r.Amount)
	if err != nil {
		return usecase.PostEntryInput{}, err
	}

	return usecase.PostEntryInput{
		AccountID:   accountID,
		Amount:      amount,
		Description: r.Description,
	}, nil
}

// CreateTransferRequest represents a request to create a transfer.
type CreateTransferRequest struct {
	SourceAccountID      string `json:"source_account_id"`
	DestinationAccountID string `json:"destination_account_id"`
	Amount               string `json:"amount"`
	Description          string `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() (usecase.TransferInput, error) {
	amount, err := domain.ParseMoney(r.Amount)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		Amount:               amount,
		Description:          r.Description,
	}, nil
}

// ReverseRequest names the entry to reverse.
type ReverseRequest struct {
	EntryKey string `json:"entry_key"`
}

// ToUseCaseInput converts to use case input for accountID.
func (r *ReverseRequest) ToUseCaseInput(accountID string) usecase.ReverseInput {
	return usecase.ReverseInput{AccountID: accountID, EntryKey: r.EntryKey}
}
