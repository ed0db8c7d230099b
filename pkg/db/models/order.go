package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
)

// Order is a customer request for vehicle service/delivery. The Status field
// is written only by the assignment and valet engines; orders are never
// deleted, terminal states are kept for history.
type Order struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID          uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	DriverID            *uuid.UUID        `gorm:"column:driver_id;type:uuid"`
	VehicleID           uuid.UUID         `gorm:"column:vehicle_id;type:uuid;not null"`
	ServicePackageID    uuid.UUID         `gorm:"column:service_package_id;type:uuid;not null"`
	DealershipID        uuid.UUID         `gorm:"column:dealership_id;type:uuid;not null"`
	DeliveryDate        time.Time         `gorm:"column:delivery_date;not null"`
	PickupLocation      string            `gorm:"column:pickup_location;type:text;not null"`
	Notes               *string           `gorm:"column:notes"`
	ValetVehicleRequest bool              `gorm:"column:valet_vehicle_request;not null;default:false"`
	Status              enums.OrderStatus `gorm:"column:status;type:text;not null;default:'INITIATED'"`
	PaymentIntentID     *uuid.UUID        `gorm:"column:payment_intent_id;type:uuid"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
