package types

import (
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the authenticated principal extracted from the bearer token.
type Actor struct {
	UserID uuid.UUID
	Role   enums.AccountType
}

// IsDriver reports whether the actor holds the driver role.
func (a Actor) IsDriver() bool {
	return a.Role == enums.AccountTypeDriver
}

// IsStaff reports whether the actor may act on behalf of a dealership.
func (a Actor) IsStaff() bool {
	return a.Role == enums.AccountTypeManager || a.Role == enums.AccountTypeAdmin
}
