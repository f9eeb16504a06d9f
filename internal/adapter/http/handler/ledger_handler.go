package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/checkledger/internal/adapter/http/dto"
	"github.com/iho/checkledger/internal/usecase"
)

// LedgerService defines the posting behavior needed by LedgerHandler.
type LedgerService interface {
	Credit(ctx context.Context, input usecase.PostEntryInput) (*usecase.PostingResult, error)
	Debit(ctx context.Context, input usecase.PostEntryInput) (*usecase.PostingResult, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
	Reverse(ctx context.Context, input usecase.ReverseInput) (*usecase.ReversalResult, error)
}

// LedgerHandler handles credits, debits, transfers and reversals.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Credit posts a credit to the account in the path.
func (h *LedgerHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, "failed to credit account", h.ledgerUC.Credit)
}

// Debit posts a debit to the account in the path.
func (h *LedgerHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, "failed to debit account", h.ledgerUC.Debit)
}

func (h *LedgerHandler) post(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	op func(context.Context, usecase.PostEntryInput) (*usecase.PostingResult, error),
) {
	var req dto.PostEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, message, err)
		return
	}

	result, err := op(r.Context(), input)
	if err != nil {
		writeDomainError(w, message, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PostingFromUseCase(result))
}

// Transfer moves money between two accounts.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "failed to transfer", err)
		return
	}

	result, err := h.ledgerUC.Transfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromUseCase(result))
}

// Reverse compensates one entry of the account in the path.
func (h *LedgerHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req dto.ReverseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.ledgerUC.Reverse(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to reverse entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReversalFromUseCase(result))
}
