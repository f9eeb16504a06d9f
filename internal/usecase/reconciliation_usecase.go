package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
)

// ReconciliationUseCase handles balance reconciliation operations
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	RecordedVersion   int64
	ExpectedVersion   int64
	EntryCount        int
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount replays the whole log of an account. The record is
// consistent when its balance equals the opening balance plus the signed sum
// of all entries and its version equals one plus the number of commits that
// wrote entries to it.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	calculated := account.InitialBalance
	// distinct commit versions; a commit writes one entry per account
	versions := make(map[int64]struct{})
	count := 0

	cursor := ""
	for {
		entries, next, err := uc.entryRepo.ListByAccount(ctx, accountID, periodPageSize, cursor)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			calculated = calculated.Add(e.SignedAmount())
			versions[e.AccountVersion] = struct{}{}
			count++
		}
		if next == "" {
			break
		}
		cursor = next
	}

	expectedVersion := domain.InitialAccountVersion + int64(len(versions))
	difference := account.Balance.Sub(calculated)

	return &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        difference,
		RecordedVersion:   account.Version,
		ExpectedVersion:   expectedVersion,
		EntryCount:        count,
		IsReconciled:      difference.IsZero() && account.Version == expectedVersion,
		LastChecked:       time.Now().UTC(),
	}, nil
}
