package domain

import "time"

// Event types
const (
	EventTypeAccountCreated = "account.created"
	EventTypeEntryPosted    = "entry.posted"
	EventTypeTransferPosted = "transfer.posted"
	EventTypeEntryReversed  = "entry.reversed"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published. It is written in the same
// atomic commit as the change it describes.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
}

// AccountCreatedEvent payload
type AccountCreatedEvent struct {
	AccountID      string `json:"account_id"`
	HolderName     string `json:"holder_name"`
	InitialBalance string `json:"initial_balance"`
}

// EntryPostedEvent payload
type EntryPostedEvent struct {
	AccountID    string `json:"account_id"`
	EntryKey     string `json:"entry_key"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	BalanceAfter string `json:"balance_after"`
}

// TransferPostedEvent payload
type TransferPostedEvent struct {
	SourceAccountID      string `json:"source_account_id"`
	DestinationAccountID string `json:"destination_account_id"`
	DebitEntryKey        string `json:"debit_entry_key"`
	CreditEntryKey       string `json:"credit_entry_key"`
	Amount               string `json:"amount"`
}

// EntryReversedEvent payload
type EntryReversedEvent struct {
	AccountID        string `json:"account_id"`
	OriginalEntryKey string `json:"original_entry_key"`
	ReversalEntryKey string `json:"reversal_entry_key"`
	Amount           string `json:"amount"`
}

// Payload flattens an event payload struct into the outbox payload map.
func (e AccountCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"account_id":      e.AccountID,
		"holder_name":     e.HolderName,
		"initial_balance": e.InitialBalance,
	}
}

// Payload flattens an event payload struct into the outbox payload map.
func (e EntryPostedEvent) Payload() map[string]any {
	return map[string]any{
		"account_id":    e.AccountID,
		"entry_key":     e.EntryKey,
		"type":          e.Type,
		"amount":        e.Amount,
		"balance_after": e.BalanceAfter,
	}
}

// Payload flattens an event payload struct into the outbox payload map.
func (e TransferPostedEvent) Payload() map[string]any {
	return map[string]any{
		"source_account_id":      e.SourceAccountID,
		"destination_account_id": e.DestinationAccountID,
		"debit_entry_key":        e.DebitEntryKey,
		"credit_entry_key":       e.CreditEntryKey,
		"amount":                 e.Amount,
	}
}

// Payload flattens an event payload struct into the outbox payload map.
func (e EntryReversedEvent) Payload() map[string]any {
	return map[string]any{
		"account_id":         e.AccountID,
		"original_entry_key": e.OriginalEntryKey,
		"reversal_entry_key": e.ReversalEntryKey,
		"amount":             e.Amount,
	}
}
