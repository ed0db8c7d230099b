package valets

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
)

// CheckInput carries one vehicle condition snapshot.
type CheckInput struct {
	FrontImage string
	BackImage  string
	LeftImage  string
	RightImage string
	Mileage    *int
	GasLevel   *int
}

func (c CheckInput) validate() error {
	switch {
	case c.FrontImage == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "front image required")
	case c.BackImage == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "back image required")
	case c.LeftImage == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "left image required")
	case c.RightImage == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "right image required")
	case c.Mileage == nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "mileage required")
	case c.GasLevel == nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "gas level required")
	}
	return nil
}

// CreateValetInput carries a driver's request to begin a pickup run.
type CreateValetInput struct {
	Actor      types.Actor
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	DriverID   uuid.UUID
	Check      CheckInput
	Comments   *string
}

// UpdateValetInput carries a state transition request.
type UpdateValetInput struct {
	Actor   types.Actor
	ValetID uuid.UUID
	Target  enums.ValetStatus
	Check   *CheckInput
}

// SendLocationInput carries a live tracking coordinate.
type SendLocationInput struct {
	Actor     types.Actor
	ValetID   uuid.UUID
	Latitude  float64
	Longitude float64
}
