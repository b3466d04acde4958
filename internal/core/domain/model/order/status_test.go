package order_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status order.Status
		want   string
	}{
		{order.Receiving, "RECEIVING"},
		{order.Validating, "VALIDATING"},
		{order.AwaitingApproval, "AWAITING_APPROVAL"},
		{order.ChargingPayment, "CHARGING_PAYMENT"},
		{order.Shipping, "SHIPPING"},
		{order.MarkingShipped, "MARKING_SHIPPED"},
		{order.Completed, "COMPLETED"},
		{order.Cancelled, "CANCELLED"},
		{order.Failed, "FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, order.Completed.IsTerminal())
	assert.True(t, order.Cancelled.IsTerminal())
	assert.True(t, order.Failed.IsTerminal())

	assert.False(t, order.Receiving.IsTerminal())
	assert.False(t, order.Validating.IsTerminal())
	assert.False(t, order.AwaitingApproval.IsTerminal())
	assert.False(t, order.ChargingPayment.IsTerminal())
	assert.False(t, order.Shipping.IsTerminal())
	assert.False(t, order.MarkingShipped.IsTerminal())
}

func TestStatusTransitions(t *testing.T) {
	t.Run("happy path walks every step in order", func(t *testing.T) {
		s := order.Receiving

		s, err := s.BeginValidation()
		require.NoError(t, err)
		assert.Equal(t, order.Validating, s)

		s, err = s.AwaitApproval()
		require.NoError(t, err)
		assert.Equal(t, order.AwaitingApproval, s)

		s, err = s.BeginCharging()
		require.NoError(t, err)
		assert.Equal(t, order.ChargingPayment, s)

		s, err = s.BeginShipping()
		require.NoError(t, err)
		assert.Equal(t, order.Shipping, s)

		s, err = s.MarkShipped()
		require.NoError(t, err)
		assert.Equal(t, order.MarkingShipped, s)

		s, err = s.Complete()
		require.NoError(t, err)
		assert.Equal(t, order.Completed, s)
	})

	t.Run("should not skip steps", func(t *testing.T) {
		_, err := order.Receiving.BeginCharging()
		require.Error(t, err)

		_, err = order.Validating.BeginShipping()
		require.Error(t, err)

		_, err = order.AwaitingApproval.MarkShipped()
		require.Error(t, err)
	})

	t.Run("cancel is allowed up to and including charging", func(t *testing.T) {
		for _, from := range []order.Status{
			order.Receiving, order.Validating, order.AwaitingApproval, order.ChargingPayment,
		} {
			s, err := from.Cancel()
			require.NoError(t, err, from.String())
			assert.Equal(t, order.Cancelled, s)
		}
	})

	t.Run("cancel is rejected once shipping started", func(t *testing.T) {
		for _, from := range []order.Status{
			order.Shipping, order.MarkingShipped, order.Completed, order.Cancelled, order.Failed,
		} {
			_, err := from.Cancel()
			require.Error(t, err, from.String())
		}
	})

	t.Run("fail is allowed from any non-terminal status", func(t *testing.T) {
		for _, from := range []order.Status{
			order.Receiving, order.Validating, order.AwaitingApproval,
			order.ChargingPayment, order.Shipping, order.MarkingShipped,
		} {
			s, err := from.Fail()
			require.NoError(t, err, from.String())
			assert.Equal(t, order.Failed, s)
		}
	})

	t.Run("terminal statuses accept no transition", func(t *testing.T) {
		for _, from := range []order.Status{order.Completed, order.Cancelled, order.Failed} {
			_, err := from.Fail()
			require.Error(t, err, from.String())
			_, err = from.Complete()
			require.Error(t, err, from.String())
		}
	})
}
