package instancerepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/process"
	"fulfillment/internal/pkg/errs"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// GormInstanceRepository implements InstanceRepository using GORM.
type GormInstanceRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormInstanceRepository creates a new GORM instance repository.
func NewGormInstanceRepository(db *gorm.DB, tracker aggregateTracker) *GormInstanceRepository {
	return &GormInstanceRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add persists a freshly created instance.
func (r *GormInstanceRepository) Add(ctx context.Context, aggregate *process.Instance) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isDuplicateKey(err) {
			return errs.NewObjectAlreadyExistsError("process instance", aggregate.OrderID().String())
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.OrderID(), aggregate)
	return nil
}

// Update persists step, attempt, deadline, and pending-command changes.
// All columns are written: a cleared deadline or an emptied FIFO must
// overwrite the stored value.
func (r *GormInstanceRepository) Update(ctx context.Context, aggregate *process.Instance) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&InstanceDTO{}).
		Where("order_id = ?", dto.OrderID).Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("process instance", aggregate.OrderID().String())
	}

	r.tracker.TrackAggregate(aggregate.OrderID(), aggregate)
	return nil
}

// Get retrieves the instance of one order.
func (r *GormInstanceRepository) Get(ctx context.Context, orderID kernel.UUID) (*process.Instance, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto InstanceDTO
	if err := r.db.WithContext(ctx).First(&dto, "order_id = ?", orderID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("process instance", orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllActive returns every instance whose step is not terminal.
func (r *GormInstanceRepository) GetAllActive(ctx context.Context) ([]*process.Instance, error) {
	terminal := []int{int(order.Completed), int(order.Cancelled), int(order.Failed)}

	var dtos []InstanceDTO
	if err := r.db.WithContext(ctx).Find(&dtos, "step NOT IN ?", terminal).Error; err != nil {
		return nil, err
	}

	instances := make([]*process.Instance, 0, len(dtos))
	for _, dto := range dtos {
		inst, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	return instances, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
