package usecase

import "time"

const (
	// DefaultOperationTimeout bounds one engine operation including retries
	// when the caller's context carries no deadline.
	DefaultOperationTimeout = 10 * time.Second

	// DefaultRetryMaxAttempts is how many commits an operation may attempt.
	DefaultRetryMaxAttempts = 5

	// DefaultRetryMinDelay and DefaultRetryMaxDelay bound the jittered pause
	// between attempts.
	DefaultRetryMinDelay = 100 * time.Millisecond
	DefaultRetryMaxDelay = 500 * time.Millisecond

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// periodPageSize is the page size used when walking a whole period.
	periodPageSize = 100
)

// Operation names used in logs, metrics and errors.
const (
	OpCredit   = "credit"
	OpDebit    = "debit"
	OpTransfer = "transfer"
	OpReverse  = "reverse"
	OpCreate   = "create_account"
)
