package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
)

// Result messages.
const (
	TransferCompletedMessage = "transfer completed"
	ReversalCompletedMessage = "transaction reversed"
)

// LedgerUseCase moves money. Every operation reads the current account
// record, computes the new state and commits it together with the log entry
// in one batch guarded by the version it read. A lost race is retried from
// the read.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     *ConflictRetrier
	logger      zerolog.Logger
	metrics     LedgerMetrics
	now         func() time.Time
}

// LedgerOption configures a LedgerUseCase.
type LedgerOption func(*LedgerUseCase)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m LedgerMetrics) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.metrics = m
	}
}

// WithOutbox makes every commit also write an outbox event.
func WithOutbox(repo OutboxRepository, idGen IDGenerator) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.outboxRepo = repo
		uc.idGen = idGen
	}
}

// WithRetrier replaces the default retry loop.
func WithRetrier(r *ConflictRetrier) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.retrier = r
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) LedgerOption {
	return func(uc *LedgerUseCase) {
		uc.now = now
	}
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	opts ...LedgerOption,
) *LedgerUseCase {
	uc := &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.retrier == nil {
		uc.retrier = NewConflictRetrier(DefaultRetryPolicy(), WithRetryLogger(uc.logger), WithRetryMetrics(uc.metrics))
	}
	return uc
}

// PostEntryInput represents input for a credit or debit.
type PostEntryInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Description string
}

// PostingResult is the outcome of a credit, debit or reversal.
type PostingResult struct {
	Balance decimal.Decimal
	Entry   *domain.Entry
}

// TransferInput represents input for a transfer between two accounts.
type TransferInput struct {
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Description          string
}

// TransferResult is the outcome of a transfer.
type TransferResult struct {
	Success            bool
	Message            string
	SourceBalance      decimal.Decimal
	DestinationBalance decimal.Decimal
	DebitEntry         *domain.Entry
	CreditEntry        *domain.Entry
}

// ReverseInput identifies the entry to compensate.
type ReverseInput struct {
	AccountID string
	EntryKey  string
}

// ReversalResult is the outcome of a reversal.
type ReversalResult struct {
	Balance     decimal.Decimal
	Entry       *domain.Entry
	OriginalKey string
	Message     string
}

// Credit adds amount to an account.
func (uc *LedgerUseCase) Credit(ctx context.Context, input PostEntryInput) (*PostingResult, error) {
	return uc.post(ctx, OpCredit, domain.EntryTypeCredit, input)
}

// Debit removes amount from an account. The balance may not go negative.
func (uc *LedgerUseCase) Debit(ctx context.Context, input PostEntryInput) (*PostingResult, error) {
	return uc.post(ctx, OpDebit, domain.EntryTypeDebit, input)
}

func (uc *LedgerUseCase) post(ctx context.Context, op string, entryType domain.EntryType, input PostEntryInput) (*PostingResult, error) {
	amount, description, err := validatePosting(input.Amount, input.Description)
	if err != nil {
		return nil, uc.fail(op, input.AccountID, input.Amount, err)
	}

	var result *PostingResult
	started := time.Now()

	attempts, err := uc.retrier.Do(ctx, op, input.AccountID, func(ctx context.Context) error {
		account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
		if err != nil {
			return err
		}

		newBalance := account.Apply(entryType, amount)
		if newBalance.IsNegative() {
			return domain.ErrInsufficientFunds
		}

		entry := uc.newEntry(account, entryType, amount, newBalance, description)

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.accountRepo.UpdateBalance(ctx, tx, account, entryType.Signed(amount), entry.CreatedAt); err != nil {
			return err
		}
		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}
		if err := uc.emit(ctx, tx, account.ID, domain.EventTypeEntryPosted, domain.EntryPostedEvent{
			AccountID:    account.ID,
			EntryKey:     entry.Key,
			Type:         entryType.String(),
			Amount:       domain.FormatMoney(amount),
			BalanceAfter: domain.FormatMoney(newBalance),
		}.Payload(), entry.CreatedAt); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &PostingResult{Balance: newBalance, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, uc.fail(op, input.AccountID, amount, err)
	}

	uc.succeed(op, input.AccountID, attempts, started)
	return result, nil
}

// Transfer moves amount from the source to the destination account. Both
// balance updates and both entries commit together or not at all.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.SourceAccountID == input.DestinationAccountID {
		return nil, uc.fail(OpTransfer, input.SourceAccountID, input.Amount, domain.ErrSameAccount)
	}

	amount, description, err := validatePosting(input.Amount, input.Description)
	if err != nil {
		return nil, uc.fail(OpTransfer, input.SourceAccountID, input.Amount, err)
	}

	var result *TransferResult
	started := time.Now()

	attempts, err := uc.retrier.Do(ctx, OpTransfer, input.SourceAccountID, func(ctx context.Context) error {
		source, err := uc.accountRepo.GetByID(ctx, input.SourceAccountID)
		if err != nil {
			return err
		}
		destination, err := uc.accountRepo.GetByID(ctx, input.DestinationAccountID)
		if err != nil {
			return err
		}

		sourceBalance := source.ApplyDebit(amount)
		if sourceBalance.IsNegative() {
			return domain.ErrInsufficientFunds
		}
		destinationBalance := destination.ApplyCredit(amount)

		debitEntry := uc.newEntry(source, domain.EntryTypeDebit, amount, sourceBalance,
			transferDescription(description, "Transfer to "+destination.ID))
		creditEntry := uc.newEntry(destination, domain.EntryTypeCredit, amount, destinationBalance,
			transferDescription(description, "Transfer from "+source.ID))

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.accountRepo.UpdateBalance(ctx, tx, source, amount.Neg(), debitEntry.CreatedAt); err != nil {
			return err
		}
		if err := uc.accountRepo.UpdateBalance(ctx, tx, destination, amount, creditEntry.CreatedAt); err != nil {
			return err
		}
		if err := uc.entryRepo.Create(ctx, tx, debitEntry); err != nil {
			return err
		}
		if err := uc.entryRepo.Create(ctx, tx, creditEntry); err != nil {
			return err
		}
		if err := uc.emit(ctx, tx, source.ID, domain.EventTypeTransferPosted, domain.TransferPostedEvent{
			SourceAccountID:      source.ID,
			DestinationAccountID: destination.ID,
			DebitEntryKey:        debitEntry.Key,
			CreditEntryKey:       creditEntry.Key,
			Amount:               domain.FormatMoney(amount),
		}.Payload(), debitEntry.CreatedAt); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &TransferResult{
			Success:            true,
			Message:            TransferCompletedMessage,
			SourceBalance:      sourceBalance,
			DestinationBalance: destinationBalance,
			DebitEntry:         debitEntry,
			CreditEntry:        creditEntry,
		}
		return nil
	})
	if err != nil {
		return nil, uc.fail(OpTransfer, input.SourceAccountID, amount, err)
	}

	uc.succeed(OpTransfer, input.SourceAccountID, attempts, started)
	return result, nil
}

// Reverse compensates one entry with an entry of the opposite type and flags
// the original as reversed. An entry is reversed at most once, and reversal
// entries themselves cannot be reversed.
func (uc *LedgerUseCase) Reverse(ctx context.Context, input ReverseInput) (*ReversalResult, error) {
	var result *ReversalResult
	started := time.Now()
	amount := decimal.Zero

	attempts, err := uc.retrier.Do(ctx, OpReverse, input.AccountID, func(ctx context.Context) error {
		original, err := uc.entryRepo.GetByKey(ctx, input.AccountID, input.EntryKey)
		if err != nil {
			return err
		}
		if err := original.ValidateReversal(); err != nil {
			return err
		}
		amount = original.Amount

		account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
		if err != nil {
			return err
		}

		reversalType := original.Type.Opposite()
		newBalance := account.Apply(reversalType, original.Amount)

		entry := uc.newEntry(account, reversalType, original.Amount, newBalance,
			domain.ReversalDescription(original.Description))
		entry.ReversalOf = original.Key

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.accountRepo.UpdateBalance(ctx, tx, account, reversalType.Signed(original.Amount), entry.CreatedAt); err != nil {
			return err
		}
		if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
			return err
		}
		if err := uc.entryRepo.MarkReversed(ctx, tx, original); err != nil {
			return err
		}
		if err := uc.emit(ctx, tx, account.ID, domain.EventTypeEntryReversed, domain.EntryReversedEvent{
			AccountID:        account.ID,
			OriginalEntryKey: original.Key,
			ReversalEntryKey: entry.Key,
			Amount:           domain.FormatMoney(original.Amount),
		}.Payload(), entry.CreatedAt); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &ReversalResult{
			Balance:     newBalance,
			Entry:       entry,
			OriginalKey: original.Key,
			Message:     ReversalCompletedMessage,
		}
		return nil
	})
	if err != nil {
		return nil, uc.fail(OpReverse, input.AccountID, amount, err)
	}

	uc.succeed(OpReverse, input.AccountID, attempts, started)
	return result, nil
}

// newEntry builds the entry the commit against account will write. Its key is
// derived from the version the commit produces, so two commits racing on the
// same record can never both claim it.
func (uc *LedgerUseCase) newEntry(account *domain.Account, entryType domain.EntryType, amount, balanceAfter decimal.Decimal, description string) *domain.Entry {
	at := account.NextEntryTime(uc.now())
	version := account.NextVersion()

	return &domain.Entry{
		AccountID:      account.ID,
		Key:            domain.EntryKey(at, version),
		Type:           entryType,
		Amount:         amount,
		BalanceAfter:   balanceAfter,
		Description:    description,
		AccountVersion: version,
		CreatedAt:      at,
	}
}

func (uc *LedgerUseCase) emit(ctx context.Context, tx Transaction, accountID, eventType string, payload map[string]any, at time.Time) error {
	if uc.outboxRepo == nil || uc.idGen == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   accountID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	})
}

func (uc *LedgerUseCase) succeed(op, accountID string, attempts int, started time.Time) {
	elapsed := time.Since(started)
	if uc.metrics != nil {
		uc.metrics.ObserveCommit(op, attempts, elapsed)
	}
	uc.logger.Debug().
		Str("operation", op).
		Str("account_id", accountID).
		Int("attempts", attempts).
		Dur("elapsed", elapsed).
		Msg("ledger commit succeeded")
}

func (uc *LedgerUseCase) fail(op, accountID string, amount decimal.Decimal, err error) error {
	reason := FailureReason(err)
	if uc.metrics != nil {
		uc.metrics.IncFailure(op, reason)
	}

	event := uc.logger.Error()
	if domain.IsValidation(err) || reason == "not_found" {
		event = uc.logger.Info()
	}
	event.Err(err).
		Str("operation", op).
		Str("account_id", accountID).
		Str("amount", domain.FormatMoney(amount)).
		Str("reason", reason).
		Msg("ledger operation failed")

	return &domain.OperationError{Op: op, AccountID: accountID, Amount: amount, Err: err}
}

// FailureReason classifies err into a short label for logs and metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyReversed), errors.Is(err, domain.ErrReversalNotReversible):
		return "not_reversible"
	case domain.IsValidation(err):
		return "validation"
	case errors.Is(err, domain.ErrConflictExhausted):
		return "conflict_exhausted"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

func validatePosting(amount decimal.Decimal, description string) (decimal.Decimal, string, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return decimal.Zero, "", err
	}

	description, err := domain.ValidateDescription(description)
	if err != nil {
		return decimal.Zero, "", err
	}

	return domain.RoundMoney(amount), description, nil
}

func transferDescription(description, fallback string) string {
	if description != "" {
		return description
	}
	return fallback
}
