package db

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// IsRetryableError is a function that checks if an error is worth retrying.
type IsRetryableError func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation with default retry settings for unique-violation errors.
// It uses DefaultMaxRetries and IsUniqueViolation.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsUniqueViolation)
}

// WithRetries executes an operation with a retry mechanism for transient conflicts.
// It attempts the operation up to maxRetries times with a small incremental backoff.
func WithRetries(op Operation, maxRetries int, isRetryable IsRetryableError) error {
	var err error
	// Loop for initial attempt (attempt = 0) + maxRetries
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil // Success
		}

		if attempt == maxRetries {
			break
		}

		if isRetryable(err) {
			time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
		} else {
			return err // Not retryable, return immediately
		}
	}
	return err // All attempts failed or last attempt failed
}

// IsUniqueViolation checks if an error from Postgres is a unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
