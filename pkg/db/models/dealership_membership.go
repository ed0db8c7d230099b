package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
)

// DealershipMembership links a user with a dealership and captures their
// role/confirmation status.
type DealershipMembership struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealershipID      uuid.UUID              `gorm:"column:dealership_id;type:uuid;not null"`
	UserID            uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	Role              enums.AccountType      `gorm:"column:role;type:text;not null"`
	Status            enums.MembershipStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	ConfirmedByUserID *uuid.UUID             `gorm:"column:confirmed_by_user_id;type:uuid"`
	ConfirmedAt       *time.Time             `gorm:"column:confirmed_at"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
