package utils

import (
	"fmt"
	"time"
)

// RetriesExhaustedError wraps the last underlying error once the attempt
// budget is spent
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// Retry runs fn up to attempts times with exponential backoff
// (baseDelay * 2^(attempt-1) between attempts). Errors that isRetryable
// rejects are returned immediately; callers own all mutation and must reuse
// the same idempotency key for every attempt of one logical operation.
func Retry(attempts int, baseDelay time.Duration, isRetryable func(error) bool, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if isRetryable != nil && !isRetryable(err) {
			return err
		}
		if i < attempts-1 {
			time.Sleep(baseDelay * (1 << uint(i)))
		}
	}
	return RetriesExhaustedError{Attempts: attempts, Last: err}
}
