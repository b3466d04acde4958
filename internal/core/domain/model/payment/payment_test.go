package payment_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	t.Run("should create pending record", func(t *testing.T) {
		orderID := kernel.NewUUID()
		p, err := payment.NewPayment("payment-"+orderID.String(), orderID, 42.5)

		require.NoError(t, err)
		require.NoError(t, p.Validate())
		assert.Equal(t, payment.StatusPending, p.Status())
		assert.InEpsilon(t, 42.5, p.Amount(), 1e-9)
		assert.True(t, p.OrderID().IsEqual(orderID))
	})

	t.Run("should require idempotency key", func(t *testing.T) {
		_, err := payment.NewPayment("", kernel.NewUUID(), 42.5)
		require.Error(t, err)
	})

	t.Run("should require positive amount", func(t *testing.T) {
		_, err := payment.NewPayment("key", kernel.NewUUID(), 0)
		require.Error(t, err)
	})
}

func TestPaymentSettlement(t *testing.T) {
	t.Run("mark charged", func(t *testing.T) {
		p, err := payment.NewPayment("key", kernel.NewUUID(), 10)
		require.NoError(t, err)

		p.MarkCharged()
		assert.Equal(t, payment.StatusCharged, p.Status())
	})

	t.Run("mark failed", func(t *testing.T) {
		p, err := payment.NewPayment("key", kernel.NewUUID(), 10)
		require.NoError(t, err)

		p.MarkFailed()
		assert.Equal(t, payment.StatusFailed, p.Status())
	})
}

func TestRestorePayment(t *testing.T) {
	p, err := payment.NewPayment("key", kernel.NewUUID(), 10)
	require.NoError(t, err)
	p.MarkCharged()

	restored, err := payment.RestorePayment(
		p.IdempotencyKey(),
		p.OrderID(),
		p.Status(),
		p.Amount(),
		p.CreatedAt(),
		p.UpdatedAt(),
	)

	require.NoError(t, err)
	require.NoError(t, restored.Validate())
	assert.Equal(t, payment.StatusCharged, restored.Status())
}
