package usecase

import (
	"context"
	"time"

	"github.com/iho/checkledger/internal/domain"
)

// HistoryUseCase answers read-only questions about the transaction log.
type HistoryUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	now         func() time.Time
}

// NewHistoryUseCase creates a new HistoryUseCase.
func NewHistoryUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *HistoryUseCase {
	return &HistoryUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		now:         time.Now,
	}
}

// HistoryPage is one page of entries, newest first.
type HistoryPage struct {
	Entries    []*domain.Entry
	NextCursor string
}

// GetHistory returns the most recent entries of an account, newest first.
func (uc *HistoryUseCase) GetHistory(ctx context.Context, accountID string, limit int) ([]*domain.Entry, error) {
	page, err := uc.GetHistoryPage(ctx, accountID, limit, "")
	if err != nil {
		return nil, err
	}
	return page.Entries, nil
}

// GetHistoryPage returns one page of history. An empty NextCursor means the
// log has been read to its start.
func (uc *HistoryUseCase) GetHistoryPage(ctx context.Context, accountID string, limit int, cursor string) (*HistoryPage, error) {
	if err := uc.ensureAccount(ctx, accountID); err != nil {
		return nil, err
	}

	entries, next, err := uc.entryRepo.ListByAccount(ctx, accountID, domain.ValidatePagination(limit), cursor)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Entries: entries, NextCursor: next}, nil
}

// GetHistoryByType returns the most recent entries of one type.
func (uc *HistoryUseCase) GetHistoryByType(ctx context.Context, accountID string, entryType domain.EntryType, limit int, cursor string) (*HistoryPage, error) {
	if !entryType.Valid() {
		return nil, domain.ErrInvalidEntryType
	}
	if err := uc.ensureAccount(ctx, accountID); err != nil {
		return nil, err
	}

	entries, next, err := uc.entryRepo.ListByType(ctx, accountID, entryType, domain.ValidatePagination(limit), cursor)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Entries: entries, NextCursor: next}, nil
}

// GetEntriesByPeriod returns every entry created in [from, to], oldest first.
func (uc *HistoryUseCase) GetEntriesByPeriod(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Entry, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidPeriod
	}
	if err := uc.ensureAccount(ctx, accountID); err != nil {
		return nil, err
	}

	var (
		all    []*domain.Entry
		cursor string
	)
	for {
		entries, next, err := uc.entryRepo.ListByPeriod(ctx, accountID, from, to, periodPageSize, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// GetReport totals the entries of the last periodDays days.
func (uc *HistoryUseCase) GetReport(ctx context.Context, accountID string, periodDays int) (*domain.Report, error) {
	if err := domain.ValidatePeriodDays(periodDays); err != nil {
		return nil, err
	}

	to := uc.now().UTC()
	from := to.AddDate(0, 0, -periodDays)

	entries, err := uc.GetEntriesByPeriod(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	return domain.NewReport(accountID, from, to, entries), nil
}

func (uc *HistoryUseCase) ensureAccount(ctx context.Context, accountID string) error {
	_, err := uc.accountRepo.GetByID(ctx, accountID)
	return err
}
