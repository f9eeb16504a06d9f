package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/checkledger/internal/adapter/http/dto"
	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

// HistoryService defines the read behavior needed by EntryHandler.
type HistoryService interface {
	GetHistoryPage(ctx context.Context, accountID string, limit int, cursor string) (*usecase.HistoryPage, error)
	GetHistoryByType(ctx context.Context, accountID string, entryType domain.EntryType, limit int, cursor string) (*usecase.HistoryPage, error)
	GetEntriesByPeriod(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Entry, error)
	GetReport(ctx context.Context, accountID string, periodDays int) (*domain.Report, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	historyUC HistoryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(historyUC HistoryService) *EntryHandler {
	return &EntryHandler{historyUC: historyUC}
}

// ListByAccount lists entries for an account, newest first. ?type= narrows
// the list to credits or debits.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", domain.DefaultPageSize)
	cursor := r.URL.Query().Get("cursor")

	var (
		page *usecase.HistoryPage
		err  error
	)
	if raw := r.URL.Query().Get("type"); raw != "" {
		entryType, parseErr := domain.ParseEntryType(raw)
		if parseErr != nil {
			writeDomainError(w, "invalid entry type", parseErr)
			return
		}
		page, err = h.historyUC.GetHistoryByType(r.Context(), accountID, entryType, limit, cursor)
	} else {
		page, err = h.historyUC.GetHistoryPage(r.Context(), accountID, limit, cursor)
	}
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries:    dto.EntriesFromDomain(page.Entries),
		NextCursor: page.NextCursor,
	})
}

// ListByPeriod lists entries between ?from= and ?to= (RFC3339), oldest first.
func (h *EntryHandler) ListByPeriod(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from", err.Error())
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to", err.Error())
		return
	}

	entries, err := h.historyUC.GetEntriesByPeriod(r.Context(), accountID, from, to)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{Entries: dto.EntriesFromDomain(entries)})
}

// Report summarizes the last ?days= days of an account.
func (h *EntryHandler) Report(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	days := parseIntQuery(r, "days", 30)

	report, err := h.historyUC.GetReport(r.Context(), accountID, days)
	if err != nil {
		writeDomainError(w, "failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromDomain(report))
}
