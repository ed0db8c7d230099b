package models

import (
	"time"

	"github.com/google/uuid"
)

// Dealership is the directory entry the engines resolve memberships,
// vehicles, and orders against.
type Dealership struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Address   string    `gorm:"column:address;type:text;not null"`
	Phone     *string   `gorm:"column:phone"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
