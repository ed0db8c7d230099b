package assignments

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
)

// AssignOrderInput carries a manager's assignment request.
type AssignOrderInput struct {
	Actor              types.Actor
	OrderID            uuid.UUID
	DriverIDs          []uuid.UUID
	CustomerID         uuid.UUID
	DealershipID       uuid.UUID
	AssignType         enums.AssignType
	LoanerVehicleID    *uuid.UUID
	PaymentRequired    bool
	PaymentAmountCents *int64
}

// AcceptOrderInput carries a driver's claim on an assignment.
type AcceptOrderInput struct {
	Actor    types.Actor
	AssignID uuid.UUID
}

// RejectOrderInput carries a driver's soft decline of an assignment.
type RejectOrderInput struct {
	Actor    types.Actor
	AssignID uuid.UUID
}
