package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/boring-ventures/peyo-onramp/utils"
)

// Error taxonomy for the Bridge integration. Validation and concurrency
// errors are terminal; provider and network errors are retried by the call
// site before being surfaced.
type (
	ErrValidation        struct{ Reason string }
	ErrNetwork           struct{ Err error }
	ErrDatabase          struct{ Err error }
	ErrNotFound          struct{ Resource string }
	ErrAlreadyInProgress struct{ IdentityID string }
	ErrAgreementPending  struct{ URL string }
	ErrCancelled         struct{}
)

// ErrProvider is a non-2xx or malformed response from the Bridge API
type ErrProvider struct {
	Status int
	Body   string
}

func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s", e.Reason)
}

func (e ErrProvider) Error() string {
	return fmt.Sprintf("provider error: HTTP %d: %s", e.Status, e.Body)
}

func (e ErrNetwork) Error() string {
	return fmt.Sprintf("network error: couldn't reach provider: %v", e.Err)
}

func (e ErrNetwork) Unwrap() error { return e.Err }

func (e ErrDatabase) Error() string {
	return fmt.Sprintf("database error: %v", e.Err)
}

func (e ErrDatabase) Unwrap() error { return e.Err }

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e ErrAlreadyInProgress) Error() string {
	return fmt.Sprintf("onboarding already in progress for identity %s", e.IdentityID)
}

func (e ErrAgreementPending) Error() string {
	return "agreement acceptance is pending"
}

func (e ErrCancelled) Error() string {
	return "agreement flow cancelled by user"
}

// IsRetryable reports whether an error is worth another attempt. Transport
// failures, rate limiting and provider 5xx responses qualify; validation,
// auth and not-found responses never do.
func IsRetryable(err error) bool {
	var netErr ErrNetwork
	if errors.As(err, &netErr) {
		return true
	}
	var provErr ErrProvider
	if errors.As(err, &provErr) {
		return provErr.Status >= http.StatusInternalServerError ||
			provErr.Status == http.StatusTooManyRequests
	}
	return false
}

// IsNotFound reports whether the provider said the resource does not exist
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// IsRetriesExhausted reports whether the attempt budget was spent
func IsRetriesExhausted(err error) bool {
	var re utils.RetriesExhaustedError
	return errors.As(err, &re)
}
