package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/checkledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"
)

// storedResponse is what is kept per key. Body is the raw bytes the handler
// wrote; []byte marshals as base64 so non-JSON bodies survive.
type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware replays the stored response of a mutating request
// that carries an Idempotency-Key seen before.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl
// keeps keys for usecase.IdempotencyKeyTTL.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		scoped := r.Method + " " + r.URL.Path + " " + key

		exists, cachedResponse, err := m.store.CheckAndSet(r.Context(), scoped, nil, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("idempotency_key", key).Msg("idempotency check failed")
			writeJSONError(w, http.StatusInternalServerError, "idempotency check failed")
			return
		}

		if exists {
			if cachedResponse == nil {
				writeJSONError(w, http.StatusConflict, "request with this idempotency key is in progress")
				return
			}
			var stored storedResponse
			if err := json.Unmarshal(cachedResponse, &stored); err != nil {
				m.logger.Error().Err(err).Str("idempotency_key", key).Msg("corrupt idempotent response")
				writeJSONError(w, http.StatusInternalServerError, "idempotency check failed")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			_, _ = w.Write(stored.Body)
			return
		}

		// Capture response
		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		defer func() {
			if rec := recover(); rec != nil {
				m.release(r.Context(), scoped, key)
				panic(rec)
			}
		}()
		next.ServeHTTP(recorder, r)

		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			m.release(r.Context(), scoped, key)
			return
		}
		payload, err := json.Marshal(storedResponse{Status: recorder.statusCode, Body: recorder.body.Bytes()})
		if err != nil {
			m.logger.Error().Err(err).Str("idempotency_key", key).Msg("failed to encode idempotent response")
			return
		}
		if err := m.store.Update(r.Context(), scoped, payload, m.ttl); err != nil {
			m.logger.Error().Err(err).Str("idempotency_key", key).Msg("failed to store idempotent response")
		}
	})
}

// release drops the claim so the client can retry. It runs even when the
// request context is done.
func (m *IdempotencyMiddleware) release(ctx context.Context, scoped, key string) {
	if err := m.store.Release(context.WithoutCancel(ctx), scoped); err != nil {
		m.logger.Error().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
