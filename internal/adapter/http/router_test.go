package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/checkledger/internal/adapter/http/dto"
	"github.com/iho/checkledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/checkledger/internal/adapter/http/middleware"
	"github.com/iho/checkledger/internal/adapter/repository/items"
	"github.com/iho/checkledger/internal/adapter/repository/memory"
	"github.com/iho/checkledger/internal/infrastructure/auth"
	"github.com/iho/checkledger/internal/infrastructure/metrics"
	"github.com/iho/checkledger/internal/usecase"
)

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.New()
	txManager := items.NewTxManager(store)
	accountRepo := items.NewAccountRepository(store)
	entryRepo := items.NewEntryRepository(store)

	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, nil, items.NewULIDGenerator(), zerolog.Nop())
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo)
	historyUC := usecase.NewHistoryUseCase(accountRepo, entryRepo)
	reconUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo)

	reg := prometheus.NewRegistry()
	cfg := RouterConfig{
		AccountHandler: handler.NewAccountHandler(accountUC, reconUC),
		LedgerHandler:  handler.NewLedgerHandler(ledgerUC),
		EntryHandler:   handler.NewEntryHandler(historyUC),
		HealthHandler:  handler.NewHealthHandler(map[string]handler.Pinger{"store": store}),
		Metrics:        metrics.NewWithRegisterer(reg),
		Gatherer:       reg,
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	for _, path := range []string{"/health", "/ready"} {
		rec := doJSON(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Routes)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/{id}/",
		"GET /api/v1/accounts/{id}/balance",
		"GET /api/v1/accounts/{id}/availability",
		"GET /api/v1/accounts/{id}/reconciliation",
		"POST /api/v1/accounts/{id}/credits",
		"POST /api/v1/accounts/{id}/debits",
		"POST /api/v1/accounts/{id}/reversals",
		"GET /api/v1/accounts/{id}/entries",
		"GET /api/v1/accounts/{id}/entries/period",
		"GET /api/v1/accounts/{id}/report",
		"POST /api/v1/transfers",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_LedgerFlow(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := doJSON(t, router, http.MethodPost, "/api/v1/accounts", `{"holder_name":"Alice","initial_balance":"100.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alice := decode[dto.AccountResponse](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts", `{"holder_name":"Bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bob := decode[dto.AccountResponse](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+alice.ID+"/credits", `{"amount":"50.00","description":"salary"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "150.00", decode[dto.PostingResponse](t, rec).Balance)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+alice.ID+"/debits", `{"amount":"30.00","description":"coffee"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	debit := decode[dto.PostingResponse](t, rec)
	assert.Equal(t, "120.00", debit.Balance)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+alice.ID+"/debits", `{"amount":"1000.00"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/transfers",
		`{"source_account_id":"`+alice.ID+`","destination_account_id":"`+bob.ID+`","amount":"20.00","description":"lunch"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	transfer := decode[dto.TransferResponse](t, rec)
	assert.True(t, transfer.Success)
	assert.Equal(t, "100.00", transfer.SourceBalance)
	assert.Equal(t, "20.00", transfer.DestinationBalance)

	body, err := json.Marshal(dto.ReverseRequest{EntryKey: debit.Entry.Key})
	require.NoError(t, err)
	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+alice.ID+"/reversals", string(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "130.00", decode[dto.ReversalResponse](t, rec).Balance)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+alice.ID+"/reversals", string(body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+alice.ID+"/reversals", `{"entry_key":"TXN#bogus"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/"+alice.ID+"/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "130.00", decode[dto.BalanceResponse](t, rec).Balance)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/"+alice.ID+"/entries?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[dto.ListEntriesResponse](t, rec)
	assert.Len(t, page.Entries, 2)
	assert.NotEmpty(t, page.NextCursor)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/"+alice.ID+"/entries?limit=10&cursor="+page.NextCursor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.ListEntriesResponse](t, rec).Entries, 2)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/"+alice.ID+"/reconciliation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	recon := decode[dto.ReconciliationResponse](t, rec)
	assert.True(t, recon.IsReconciled)
	assert.Equal(t, 4, recon.EntryCount)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/missing/balance", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRouter_IdempotentReplay(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = memory.NewIdempotencyStore()
		cfg.IdempotencyTTL = time.Minute
	}))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/accounts", `{"holder_name":"Alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[dto.AccountResponse](t, rec).ID

	credit := `{"amount":"10.00"}`
	first := doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+id+"/credits", credit, apimiddleware.IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, first.Code)
	second := doJSON(t, router, http.MethodPost, "/api/v1/accounts/"+id+"/credits", credit, apimiddleware.IdempotencyKeyHeader, "k-1")
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replay"))
	assert.True(t, bytes.Equal(first.Body.Bytes(), second.Body.Bytes()))

	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/"+id+"/balance", "")
	assert.Equal(t, "10.00", decode[dto.BalanceResponse](t, rec).Balance)
}

func TestNewRouter_AuthGuardsAPI(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Authenticator = manager
	}))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/accounts", `{"holder_name":"Alice"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := manager.Generate("ops", auth.RoleOperator)
	require.NoError(t, err)
	rec = doJSON(t, router, http.MethodPost, "/api/v1/accounts", `{"holder_name":"Alice"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Health stays public.
	rec = doJSON(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	router := NewRouter(newRouterConfig())

	doJSON(t, router, http.MethodGet, "/health", "")
	rec := doJSON(t, router, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "checkledger_http_requests_total")
}
