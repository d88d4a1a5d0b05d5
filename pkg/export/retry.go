// pkg/export/retry.go
package export

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgconn"
	"go.uber.org/zap"
)

// ErrorCategory classifies a failed database write
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryTransient covers dropped connections, timeouts and
	// serialization failures; the statement can be repeated
	ErrorCategoryTransient
	// ErrorCategoryConstraint means the rows conflict with rows already stored
	ErrorCategoryConstraint
	ErrorCategoryFatal
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryTransient:
		return "Transient"
	case ErrorCategoryConstraint:
		return "Constraint"
	case ErrorCategoryFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// CategorizeError determines the category of a write error
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCategoryFatal
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "08", "40", "53", "57":
			return ErrorCategoryTransient
		case "23":
			return ErrorCategoryConstraint
		default:
			return ErrorCategoryFatal
		}
	}

	var netErr net.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return ErrorCategoryTransient
	}
	return ErrorCategoryFatal
}

// RetryPolicy bounds how often a transient failure is retried
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration // doubled after every attempt
}

// DefaultRetryPolicy retries three times starting at half a second
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Backoff: 500 * time.Millisecond}
}

// withRetry runs fn until it succeeds, fails with a non-transient error or
// the policy is exhausted
func withRetry(ctx context.Context, policy RetryPolicy, logger *zap.Logger, fn func() error) error {
	backoff := policy.Backoff
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		category := CategorizeError(err)
		if category != ErrorCategoryTransient || attempt >= policy.MaxRetries {
			return err
		}

		logger.Warn("Retrying after transient error",
			zap.Int("retry", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		if ctx.Err() != nil {
			return fmt.Errorf("retry interrupted: %w", ctx.Err())
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry interrupted: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
