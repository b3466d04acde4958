package errs_test

import (
	"errors"
	"testing"

	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("orderId", "a1b2")

		assert.Equal(t, "orderId", err.ParamName)
		assert.Equal(t, "a1b2", err.ID)
		require.NoError(t, err.Cause)
		assert.Equal(t, "object not found: a1b2", err.Error())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("row scan failed")
		err := errs.NewObjectNotFoundErrorWithCause("orderId", "a1b2", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Equal(t,
			"object not found: param is: orderId, ID is: a1b2 (cause: row scan failed)",
			err.Error())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestObjectAlreadyExistsError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := errs.NewObjectAlreadyExistsError("idempotencyKey", "payment-a1b2")

		assert.Equal(t, "idempotencyKey", err.ParamName)
		assert.Equal(t, "payment-a1b2", err.ID)
		assert.Equal(t, "object already exists: payment-a1b2", err.Error())
		require.ErrorIs(t, err, errs.ErrObjectAlreadyExists)
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("duplicate key value violates unique constraint")
		err := errs.NewObjectAlreadyExistsErrorWithCause("orderId", "a1b2", cause)

		assert.Equal(t, cause, err.Cause)
		assert.Contains(t, err.Error(), "cause: duplicate key")
		require.ErrorIs(t, err, errs.ErrObjectAlreadyExists)
	})
}

func TestValueIsInvalidError(t *testing.T) {
	err := errs.NewValueIsInvalidError("priority")
	assert.Equal(t, "value is invalid: priority", err.Error())
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	cause := errors.New("unknown kind")
	withCause := errs.NewValueIsInvalidErrorWithCause("signal", cause)
	assert.Equal(t, cause, withCause.Cause)
	assert.Equal(t, "value is invalid: signal (cause: unknown kind)", withCause.Error())
	require.ErrorIs(t, withCause, errs.ErrValueIsInvalid)
}

func TestValueIsRequiredError(t *testing.T) {
	err := errs.NewValueIsRequiredError("customerRef")
	assert.Equal(t, "value is required: customerRef", err.Error())
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	cause := errors.New("field missing in request body")
	withCause := errs.NewValueIsRequiredErrorWithCause("total", cause)
	assert.Equal(t, "value is required: total (cause: field missing in request body)", withCause.Error())
	require.ErrorIs(t, withCause, errs.ErrValueIsRequired)
}

func TestValueIsOutOfRangeError(t *testing.T) {
	t.Run("bounds in message", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("total", -1.5, 0.0, 1000000.0)

		assert.Equal(t, "total", err.ParamName)
		assert.Equal(t, -1.5, err.Value)
		assert.Equal(t, "value is invalid: -1.5 is total, min value is 0, max value is 1e+06", err.Error())
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("attempt budget exceeded")
		err := errs.NewValueIsOutOfRangeErrorWithCause("attempt", 4, 1, 3, cause)

		assert.Equal(t, cause, err.Cause)
		assert.Contains(t, err.Error(), "cause: attempt budget exceeded")
	})

	t.Run("line breaks are flattened", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("street", "12\nElm St", 0, 10)
		assert.NotContains(t, err.Error(), "\n")
		assert.Contains(t, err.Error(), "12 Elm St")
	})
}

func TestSentinelMessages(t *testing.T) {
	assert.Equal(t, "object not found", errs.ErrObjectNotFound.Error())
	assert.Equal(t, "object already exists", errs.ErrObjectAlreadyExists.Error())
	assert.Equal(t, "value is invalid", errs.ErrValueIsInvalid.Error())
	assert.Equal(t, "value is out of range", errs.ErrValueIsOutOfRange.Error())
	assert.Equal(t, "value is required", errs.ErrValueIsRequired.Error())
}
