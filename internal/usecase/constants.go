package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultStatementCacheTTL is how long rendered statements are cached
	DefaultStatementCacheTTL = 5 * time.Minute

	// DefaultUpcomingDays is the horizon for upcoming loan instalments
	DefaultUpcomingDays = 30
)
