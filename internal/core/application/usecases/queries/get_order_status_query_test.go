package queries_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetOrderStatusQuery_Valid(t *testing.T) {
	id := kernel.NewUUID()
	query, err := queries.NewGetOrderStatusQuery(id)
	require.NoError(t, err)
	require.NoError(t, query.Validate())
	assert.Equal(t, id, query.OrderID())
}

func TestNewGetOrderStatusQuery_InvalidOrderID(t *testing.T) {
	_, err := queries.NewGetOrderStatusQuery(kernel.UUID{})
	require.Error(t, err)
}

func TestGetOrderStatusQuery_NotConstructedViaConstructor(t *testing.T) {
	query := queries.GetOrderStatusQuery{}
	err := query.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, queries.ErrGetOrderStatusQueryIsNotConstructed)
}
