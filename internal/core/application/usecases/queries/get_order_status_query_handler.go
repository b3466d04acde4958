package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderStatusQueryHandler reads order state straight from the database,
// bypassing the process engine: status reads must not queue behind the
// order's command serialization.
type GetOrderStatusQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderStatusQueryHandler creates a handler for order status queries.
func NewGetOrderStatusQueryHandler(db *gorm.DB) GetOrderStatusQueryHandler {
	return GetOrderStatusQueryHandler{db: db}
}

// Handle executes the status query. Returns a not-found error for unknown
// order ids.
func (h GetOrderStatusQueryHandler) Handle(
	ctx context.Context,
	query GetOrderStatusQuery,
) (GetOrderStatusQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderStatusQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			customer_ref,
			total,
			priority,
			status,
			approved,
			cancelled,
			last_error,
			updated_at
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Row()

	var (
		id        uuid.UUID
		resp      GetOrderStatusQueryResponse
		status    int
		lastError sql.NullString
		updatedAt time.Time
	)
	err := row.Scan(
		&id,
		&resp.CustomerRef,
		&resp.Total,
		&resp.Priority,
		&status,
		&resp.Approved,
		&resp.Cancelled,
		&lastError,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GetOrderStatusQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
		}
		return GetOrderStatusQueryResponse{}, err
	}

	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetOrderStatusQueryResponse{}, err
	}

	resp.ID = orderID
	resp.State = order.Status(status).String()
	resp.UpdatedAt = updatedAt
	if lastError.Valid {
		resp.LastError = &lastError.String
	}

	return resp, nil
}
