package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
)

// VehicleCheck is an immutable odometer/fuel/photo snapshot captured at a
// handoff point. Owner records whose vehicle was inspected.
type VehicleCheck struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ValetID    uuid.UUID         `gorm:"column:valet_id;type:uuid;not null"`
	Owner      enums.AccountType `gorm:"column:owner;type:text;not null"`
	FrontImage string            `gorm:"column:front_image;type:text;not null"`
	BackImage  string            `gorm:"column:back_image;type:text;not null"`
	LeftImage  string            `gorm:"column:left_image;type:text;not null"`
	RightImage string            `gorm:"column:right_image;type:text;not null"`
	Mileage    int               `gorm:"column:mileage;not null"`
	GasLevel   int               `gorm:"column:gas_level;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
