// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. It implements the repository pattern for the order
// aggregate, handling the conversion between domain entities and database
// representations.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order
// aggregates. The status column is indexed for recovery and status queries.
type OrderDTO struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerRef string     `gorm:"type:text"`
	Total       float64    `gorm:"type:numeric"`
	Priority    string     `gorm:"type:text"`
	Address     AddressDTO `gorm:"embedded;embeddedPrefix:address_"`
	HasAddress  bool
	Status      int `gorm:"index"`
	Approved    bool
	Cancelled   bool
	LastError   *string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// AddressDTO represents the embedded shipping address columns within the
// order table. HasAddress on the parent distinguishes "no address yet" from
// an address with empty fields.
type AddressDTO struct {
	Street  string `gorm:"type:text"`
	City    string `gorm:"type:text"`
	State   string `gorm:"type:text"`
	Zip     string `gorm:"type:text"`
	Country string `gorm:"type:text"`
}

// fromDomain converts an order aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:          aggregate.ID().Bytes(),
		CustomerRef: aggregate.CustomerRef(),
		Total:       aggregate.Total(),
		Priority:    aggregate.Priority().String(),
		Status:      int(aggregate.Status()),
		Approved:    aggregate.Approved(),
		Cancelled:   aggregate.Cancelled(),
		LastError:   aggregate.LastError(),
		CreatedAt:   aggregate.CreatedAt(),
		UpdatedAt:   aggregate.UpdatedAt(),
	}

	if addr := aggregate.Address(); addr != nil {
		dto.HasAddress = true
		dto.Address = AddressDTO{
			Street:  addr.Street,
			City:    addr.City,
			State:   addr.State,
			Zip:     addr.Zip,
			Country: addr.Country,
		}
	}

	return dto
}

// toDomain converts a database DTO back to an order aggregate using
// RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	priority, err := order.NewPriority(dto.Priority)
	if err != nil {
		return nil, err
	}

	var address *order.Address
	if dto.HasAddress {
		address = &order.Address{
			Street:  dto.Address.Street,
			City:    dto.Address.City,
			State:   dto.Address.State,
			Zip:     dto.Address.Zip,
			Country: dto.Address.Country,
		}
	}

	return order.RestoreOrder(
		id,
		dto.CustomerRef,
		dto.Total,
		priority,
		address,
		order.Status(dto.Status),
		dto.Approved,
		dto.Cancelled,
		dto.LastError,
		dto.CreatedAt,
		dto.UpdatedAt,
	)
}
