package queries

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// GetOrderEventsQueryHandler reads the audit log straight from the
// database.
type GetOrderEventsQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderEventsQueryHandler creates a handler for event history
// queries.
func NewGetOrderEventsQueryHandler(db *gorm.DB) GetOrderEventsQueryHandler {
	return GetOrderEventsQueryHandler{db: db}
}

// Handle executes the query. An order with no events yields an empty list;
// existence is not checked here.
func (h GetOrderEventsQueryHandler) Handle(
	ctx context.Context,
	query GetOrderEventsQuery,
) ([]GetOrderEventsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	events := make([]GetOrderEventsQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			event_type,
			payload,
			occurred_at
		FROM order_events
		WHERE order_id = ?
		ORDER BY id
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventType  string
			rawPayload []byte
			occurredAt time.Time
		)
		if err = rows.Scan(&eventType, &rawPayload, &occurredAt); err != nil {
			return nil, err
		}

		var payload map[string]any
		if len(rawPayload) > 0 {
			if err = json.Unmarshal(rawPayload, &payload); err != nil {
				return nil, err
			}
		}

		events = append(events, GetOrderEventsQueryResponse{
			EventType:  eventType,
			Payload:    payload,
			OccurredAt: occurredAt,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
