package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/adapter/http/dto"
	"github.com/iho/checkledger/internal/domain"
	"github.com/iho/checkledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetBalance(ctx context.Context, id string) (decimal.Decimal, error)
	CheckAvailability(ctx context.Context, id string, amount decimal.Decimal) (*usecase.Availability, error)
}

// ReconciliationService defines the reconciliation behavior needed by AccountHandler.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	reconUC   ReconciliationService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, reconUC ReconciliationService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, reconUC: reconUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid initial balance", err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Balance returns the current balance of an account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	balance, err := h.accountUC.GetBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		AccountID: id,
		Balance:   domain.FormatMoney(balance),
	})
}

// Availability reports whether the account covers ?amount=.
func (h *AccountHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	amount, err := domain.ParseMoney(r.URL.Query().Get("amount"))
	if err != nil {
		writeDomainError(w, "invalid amount", err)
		return
	}

	availability, err := h.accountUC.CheckAvailability(r.Context(), id, amount)
	if err != nil {
		writeDomainError(w, "failed to check availability", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AvailabilityFromUseCase(availability))
}

// Reconcile replays the log of an account against its recorded balance.
func (h *AccountHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.reconUC.ReconcileAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}
