package enums

import "fmt"

// AssignStatus tracks the lifecycle of an assignment handed to drivers. It is
// kept in lockstep with the owned order's OrderStatus on every transition.
type AssignStatus string

const (
	AssignStatusInitiated       AssignStatus = "INITIATED"
	AssignStatusAssigned        AssignStatus = "ASSIGNED"
	AssignStatusPending         AssignStatus = "PENDING"
	AssignStatusAccepted        AssignStatus = "ACCEPTED"
	AssignStatusStarted         AssignStatus = "STARTED"
	AssignStatusCompleted       AssignStatus = "COMPLETED"
	AssignStatusCancelled       AssignStatus = "CANCELLED"
	AssignStatusRejected        AssignStatus = "REJECTED"
	AssignStatusReturnInitiated AssignStatus = "RETURN_INITIATED"
	AssignStatusReturnAssigned  AssignStatus = "RETURN_ASSIGNED"
	AssignStatusReturnPending   AssignStatus = "RETURN_PENDING"
	AssignStatusReturnAccepted  AssignStatus = "RETURN_ACCEPTED"
	AssignStatusReturnStarted   AssignStatus = "RETURN_STARTED"
	AssignStatusReturnCancelled AssignStatus = "RETURN_CANCELLED"
	AssignStatusReturnDeclined  AssignStatus = "RETURN_DECLINED"
)

var validAssignStatuses = []AssignStatus{
	AssignStatusInitiated,
	AssignStatusAssigned,
	AssignStatusPending,
	AssignStatusAccepted,
	AssignStatusStarted,
	AssignStatusCompleted,
	AssignStatusCancelled,
	AssignStatusRejected,
	AssignStatusReturnInitiated,
	AssignStatusReturnAssigned,
	AssignStatusReturnPending,
	AssignStatusReturnAccepted,
	AssignStatusReturnStarted,
	AssignStatusReturnCancelled,
	AssignStatusReturnDeclined,
}

// ActiveAssignStatuses is the in-flight set: at most one assignment per order
// may hold one of these at any time. PENDING and RETURN_PENDING mark an
// assignment handed to a running valet workflow, which is still in flight.
var ActiveAssignStatuses = []AssignStatus{
	AssignStatusAssigned,
	AssignStatusPending,
	AssignStatusAccepted,
	AssignStatusStarted,
	AssignStatusReturnAssigned,
	AssignStatusReturnPending,
	AssignStatusReturnAccepted,
	AssignStatusReturnStarted,
}

// ReassignBlockingStatuses is the wider "in-flight or done" set consulted
// before creating a new assignment for an order.
var ReassignBlockingStatuses = []AssignStatus{
	AssignStatusAccepted,
	AssignStatusAssigned,
	AssignStatusPending,
	AssignStatusCompleted,
	AssignStatusStarted,
	AssignStatusCancelled,
	AssignStatusReturnAccepted,
	AssignStatusReturnAssigned,
	AssignStatusReturnPending,
	AssignStatusReturnStarted,
	AssignStatusReturnCancelled,
}

// String implements fmt.Stringer.
func (a AssignStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignStatus.
func (a AssignStatus) IsValid() bool {
	for _, candidate := range validAssignStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsActive reports whether the status belongs to the in-flight set.
func (a AssignStatus) IsActive() bool {
	for _, candidate := range ActiveAssignStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssignStatus converts raw input into an AssignStatus.
func ParseAssignStatus(value string) (AssignStatus, error) {
	for _, candidate := range validAssignStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assign status %q", value)
}
