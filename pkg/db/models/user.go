package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
)

// User represents the canonical identity entity. The driver exclusivity flag
// IsOnService is written only by the valet workflow.
type User struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email       string            `gorm:"column:email;type:text;not null;uniqueIndex"`
	Username    string            `gorm:"column:username;type:text;not null;uniqueIndex"`
	FirstName   string            `gorm:"column:first_name;not null"`
	LastName    string            `gorm:"column:last_name;not null"`
	Phone       *string           `gorm:"column:phone"`
	AccountType enums.AccountType `gorm:"column:account_type;type:text;not null"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	IsOnService bool              `gorm:"column:is_on_service;not null;default:false"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
