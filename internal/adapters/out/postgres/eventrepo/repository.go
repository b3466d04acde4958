package eventrepo

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/process"

	"gorm.io/gorm"
)

// GormEventRepository implements EventRepository using GORM.
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GORM event repository.
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Append writes one event to the log.
func (r *GormEventRepository) Append(ctx context.Context, event process.Event) error {
	dto := fromDomain(event)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// ListByOrder returns all events of one order, oldest first.
func (r *GormEventRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]process.Event, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []EventDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("id asc").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	events := make([]process.Event, 0, len(dtos))
	for _, dto := range dtos {
		event, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}
