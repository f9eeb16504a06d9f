package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/checkledger/internal/domain"
)

// RetryPolicy bounds the optimistic commit loop.
type RetryPolicy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxElapsed  time.Duration
}

// DefaultRetryPolicy returns the default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultRetryMaxAttempts,
		MinDelay:    DefaultRetryMinDelay,
		MaxDelay:    DefaultRetryMaxDelay,
		MaxElapsed:  DefaultOperationTimeout,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.MinDelay < 0 {
		p.MinDelay = 0
	}
	if p.MaxDelay < p.MinDelay {
		p.MaxDelay = p.MinDelay
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = d.MaxElapsed
	}
	return p
}

// jitterBackOff waits a uniformly random delay in [min, max] between attempts.
type jitterBackOff struct {
	min, max time.Duration
}

func (b *jitterBackOff) NextBackOff() time.Duration {
	if b.max <= b.min {
		return b.min
	}
	return b.min + rand.N(b.max-b.min+1)
}

func (b *jitterBackOff) Reset() {}

// ConflictRetrier reruns an attempt while it fails with a lost-update
// conflict or a transient store error.
type ConflictRetrier struct {
	policy  RetryPolicy
	timer   func() backoff.Timer
	logger  zerolog.Logger
	metrics LedgerMetrics
}

// RetrierOption configures a ConflictRetrier.
type RetrierOption func(*ConflictRetrier)

// WithTimer replaces the timer used to wait between attempts.
func WithTimer(newTimer func() backoff.Timer) RetrierOption {
	return func(r *ConflictRetrier) {
		r.timer = newTimer
	}
}

// WithRetryLogger sets the logger retries are reported to.
func WithRetryLogger(logger zerolog.Logger) RetrierOption {
	return func(r *ConflictRetrier) {
		r.logger = logger
	}
}

// WithRetryMetrics sets where conflicts are counted.
func WithRetryMetrics(m LedgerMetrics) RetrierOption {
	return func(r *ConflictRetrier) {
		r.metrics = m
	}
}

// NewConflictRetrier creates a retrier for policy.
func NewConflictRetrier(policy RetryPolicy, opts ...RetrierOption) *ConflictRetrier {
	r := &ConflictRetrier{
		policy: policy.normalized(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the effective policy.
func (r *ConflictRetrier) Policy() RetryPolicy {
	return r.policy
}

// Do runs attempt until it succeeds, fails with a non-retryable error, or the
// policy is exhausted. It returns the number of attempts made.
//
// Exhausting the policy on conflicts yields domain.ErrConflictExhausted; on
// transient failures the last transient error is returned. If ctx ends first
// its error is returned.
func (r *ConflictRetrier) Do(ctx context.Context, operation, accountID string, attempt func(ctx context.Context) error) (int, error) {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, r.policy.MaxElapsed)
	defer cancel()

	var b backoff.BackOff = &jitterBackOff{min: r.policy.MinDelay, max: r.policy.MaxDelay}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxAttempts-1)), ctx)

	var (
		attempts int
		lastErr  error
		terminal error
	)

	op := func() error {
		attempts++
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			terminal = err
			return backoff.Permanent(err)
		}
		lastErr = err
		if errors.Is(err, domain.ErrConditionFailed) && r.metrics != nil {
			r.metrics.IncConflict(operation)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Str("operation", operation).
			Str("account_id", accountID).
			Int("attempt", attempts).
			Dur("wait", wait).
			Msg("commit rejected, retrying")
	}

	var timer backoff.Timer
	if r.timer != nil {
		timer = r.timer()
	}

	err := backoff.RetryNotifyWithTimer(op, b, notify, timer)
	switch {
	case err == nil:
		return attempts, nil
	case parent.Err() != nil:
		return attempts, parent.Err()
	case terminal != nil && !isContextErr(terminal):
		// a fresh read rejected the operation; its verdict wins over the budget
		return attempts, terminal
	case ctx.Err() != nil && lastErr != nil:
		// elapsed budget spent between attempts
		return attempts, exhausted(lastErr)
	case domain.IsRetryable(err):
		return attempts, exhausted(err)
	default:
		return attempts, err
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func exhausted(last error) error {
	if errors.Is(last, domain.ErrConditionFailed) {
		return domain.ErrConflictExhausted
	}
	return last
}
