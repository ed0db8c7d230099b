package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
)

// Valet is the execution record of one pickup/drop-off engagement. One valet
// per order; a driver holds at most one non-terminal valet at a time.
type Valet struct {
	ID                     uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DriverID               uuid.UUID         `gorm:"column:driver_id;type:uuid;not null"`
	CustomerID             uuid.UUID         `gorm:"column:customer_id;type:uuid;not null"`
	DealershipID           uuid.UUID         `gorm:"column:dealership_id;type:uuid;not null"`
	OrderID                uuid.UUID         `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status                 enums.ValetStatus `gorm:"column:status;type:text;not null;default:'NOT_STARTED'"`
	Comments               *string           `gorm:"column:comments"`
	CustomerPickUpTime     *time.Time        `gorm:"column:customer_pick_up_time"`
	CustomerDropOffTime    *time.Time        `gorm:"column:customer_drop_off_time"`
	ValetPickUpTime        *time.Time        `gorm:"column:valet_pick_up_time"`
	ValetDropOffTime       *time.Time        `gorm:"column:valet_drop_off_time"`
	ReturnStartTime        *time.Time        `gorm:"column:return_start_time"`
	ReturnEndTime          *time.Time        `gorm:"column:return_end_time"`
	CustomerVehicleCheckID *uuid.UUID        `gorm:"column:customer_vehicle_check_id;type:uuid"`
	ValetVehicleCheckID    *uuid.UUID        `gorm:"column:valet_vehicle_check_id;type:uuid"`
	CreatedAt              time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
