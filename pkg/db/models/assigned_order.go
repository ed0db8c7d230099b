package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/valetflow-backend/pkg/db/types"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
)

// AssignedOrder is the work-order handed to drivers. Its Status and the owned
// Order.Status always represent the same logical phase; every transition
// updates both inside one transaction.
type AssignedOrder struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	AssignedByID    uuid.UUID          `gorm:"column:assigned_by_id;type:uuid;not null"`
	AcceptedByID    *uuid.UUID         `gorm:"column:accepted_by_id;type:uuid"`
	CustomerID      uuid.UUID          `gorm:"column:customer_id;type:uuid;not null"`
	DealershipID    uuid.UUID          `gorm:"column:dealership_id;type:uuid;not null"`
	LoanerVehicleID *uuid.UUID         `gorm:"column:loaner_vehicle_id;type:uuid"`
	AssignType      enums.AssignType   `gorm:"column:assign_type;type:text;not null;default:'INITIAL'"`
	Status          enums.AssignStatus `gorm:"column:status;type:text;not null"`
	RejectedByIDs   dbtypes.UUIDArray  `gorm:"column:rejected_by_ids;type:text;not null;default:'{}'"`
	PaymentIssued   bool               `gorm:"column:payment_issued;not null;default:false"`
	AssignDate      time.Time          `gorm:"column:assign_date;not null"`
	AcceptDate      *time.Time         `gorm:"column:accept_date"`
	RejectDate      *time.Time         `gorm:"column:reject_date"`
	Drivers         []AssignmentDriver `gorm:"foreignKey:AssignID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// AssignmentDriver is one row of an assignment's candidate driver set.
type AssignmentDriver struct {
	AssignID uuid.UUID `gorm:"column:assign_id;type:uuid;primaryKey"`
	DriverID uuid.UUID `gorm:"column:driver_id;type:uuid;primaryKey"`
}

// TableName keeps the join table name stable across drivers.
func (AssignmentDriver) TableName() string {
	return "assignment_drivers"
}

// DriverIDs flattens the candidate set.
func (a AssignedOrder) DriverIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(a.Drivers))
	for _, d := range a.Drivers {
		out = append(out, d.DriverID)
	}
	return out
}

// HasDriver reports whether the given user is in the candidate set.
func (a AssignedOrder) HasDriver(userID uuid.UUID) bool {
	for _, d := range a.Drivers {
		if d.DriverID == userID {
			return true
		}
	}
	return false
}
