package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	retryAll := func(error) bool { return true }

	t.Run("returns nil on first success without retrying", func(t *testing.T) {
		calls := 0
		err := Retry(3, time.Millisecond, retryAll, func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops retrying after a success", func(t *testing.T) {
		calls := 0
		err := Retry(5, time.Millisecond, retryAll, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("invokes fn exactly attempts times before giving up", func(t *testing.T) {
		calls := 0
		failure := errors.New("still failing")
		err := Retry(3, time.Millisecond, retryAll, func() error {
			calls++
			return failure
		})
		assert.Equal(t, 3, calls)

		var exhausted RetriesExhaustedError
		assert.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.ErrorIs(t, err, failure)
	})

	t.Run("returns non-retryable errors immediately", func(t *testing.T) {
		calls := 0
		fatal := errors.New("bad request")
		err := Retry(3, time.Millisecond, func(error) bool { return false }, func() error {
			calls++
			return fatal
		})
		assert.Equal(t, 1, calls)
		assert.Equal(t, fatal, err)
	})

	t.Run("treats attempts below one as a single attempt", func(t *testing.T) {
		calls := 0
		err := Retry(0, time.Millisecond, retryAll, func() error {
			calls++
			return errors.New("nope")
		})
		assert.Equal(t, 1, calls)

		var exhausted RetriesExhaustedError
		assert.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 1, exhausted.Attempts)
	})
}
