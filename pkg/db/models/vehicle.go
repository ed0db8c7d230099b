package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle covers both customer vehicles and dealership loaners. The Available
// flag on loaners is toggled only inside engine transactions.
type Vehicle struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DealershipID *uuid.UUID `gorm:"column:dealership_id;type:uuid"`
	OwnerID      *uuid.UUID `gorm:"column:owner_id;type:uuid"`
	Make         string     `gorm:"column:make;type:text;not null"`
	Model        string     `gorm:"column:model;type:text;not null"`
	Year         int        `gorm:"column:year;not null"`
	VIN          string     `gorm:"column:vin;type:text;not null;uniqueIndex"`
	Loaner       bool       `gorm:"column:loaner;not null;default:false"`
	Available    bool       `gorm:"column:available;not null;default:true"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
