package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	logger      zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase. outboxRepo may be nil.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	logger zerolog.Logger,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		logger:      logger,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	HolderName     string
	InitialBalance decimal.Decimal
}

// CreateAccount opens an account at version 1 with the given opening balance.
// The opening balance is not a log entry; reconciliation starts from it.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateHolderName(input.HolderName); err != nil {
		return nil, err
	}
	if err := domain.ValidateInitialBalance(input.InitialBalance); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	balance := domain.RoundMoney(input.InitialBalance)

	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		HolderName:     strings.TrimSpace(input.HolderName),
		Balance:        balance,
		InitialBalance: balance,
		Status:         domain.AccountStatusActive,
		Version:        domain.InitialAccountVersion,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   account.ID,
			AggregateType: domain.AggregateTypeAccount,
			EventType:     domain.EventTypeAccountCreated,
			Payload: domain.AccountCreatedEvent{
				AccountID:      account.ID,
				HolderName:     account.HolderName,
				InitialBalance: domain.FormatMoney(balance),
			}.Payload(),
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("initial_balance", domain.FormatMoney(balance)).
		Msg("account created")

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetBalance returns the current balance of an account.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Availability is the answer to whether an account could cover an amount.
type Availability struct {
	AccountID string
	Amount    decimal.Decimal
	Balance   decimal.Decimal
	Available bool
}

// CheckAvailability reports whether the current balance covers amount. The
// answer is a point-in-time read and reserves nothing.
func (uc *AccountUseCase) CheckAvailability(ctx context.Context, id string, amount decimal.Decimal) (*Availability, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	amount = domain.RoundMoney(amount)
	return &Availability{
		AccountID: id,
		Amount:    amount,
		Balance:   account.Balance,
		Available: account.Balance.GreaterThanOrEqual(amount),
	}, nil
}
