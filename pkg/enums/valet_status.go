package enums

import (
	"fmt"
	"strings"
)

// ValetStatus is the state of a valet run. Transitions between states are
// owned by the valet service; nothing else writes this field.
type ValetStatus string

const (
	ValetStatusNotStarted                    ValetStatus = "NOT_STARTED"
	ValetStatusInProgress                    ValetStatus = "IN_PROGRESS"
	ValetStatusReturnInProgress              ValetStatus = "RETURN_IN_PROGRESS"
	ValetStatusValetVehiclePickUp            ValetStatus = "VALET_VEHICLE_PICK_UP"
	ValetStatusValetVehicleDropOff           ValetStatus = "VALET_VEHICLE_DROP_OFF"
	ValetStatusDealershipToCustomerStarted   ValetStatus = "DEALERSHIP_TO_CUSTOMER_STARTED"
	ValetStatusDealershipToCustomerCompleted ValetStatus = "DEALERSHIP_TO_CUSTOMER_COMPLETED"
	ValetStatusCustomerVehiclePickUp         ValetStatus = "CUSTOMER_VEHICLE_PICK_UP"
	ValetStatusCustomerVehicleDropOff        ValetStatus = "CUSTOMER_VEHICLE_DROP_OFF"
	ValetStatusCustomerToDealershipStarted   ValetStatus = "CUSTOMER_TO_DEALERSHIP_STARTED"
	ValetStatusCustomerToDealershipCompleted ValetStatus = "CUSTOMER_TO_DEALERSHIP_COMPLETED"
	ValetStatusCustomerReturnStarted         ValetStatus = "CUSTOMER_RETURN_STARTED"
	ValetStatusCustomerReturnCompleted       ValetStatus = "CUSTOMER_RETURN_COMPLETED"
	ValetStatusCompleted                     ValetStatus = "COMPLETED"
	ValetStatusCancelled                     ValetStatus = "CANCELLED"
)

var validValetStatuses = []ValetStatus{
	ValetStatusNotStarted,
	ValetStatusInProgress,
	ValetStatusReturnInProgress,
	ValetStatusValetVehiclePickUp,
	ValetStatusValetVehicleDropOff,
	ValetStatusDealershipToCustomerStarted,
	ValetStatusDealershipToCustomerCompleted,
	ValetStatusCustomerVehiclePickUp,
	ValetStatusCustomerVehicleDropOff,
	ValetStatusCustomerToDealershipStarted,
	ValetStatusCustomerToDealershipCompleted,
	ValetStatusCustomerReturnStarted,
	ValetStatusCustomerReturnCompleted,
	ValetStatusCompleted,
	ValetStatusCancelled,
}

// StartedValetStatuses is the set a driver's in-flight valet list is drawn
// from when serving the "started runs" lookup.
var StartedValetStatuses = []ValetStatus{
	ValetStatusCustomerToDealershipStarted,
	ValetStatusDealershipToCustomerCompleted,
	ValetStatusDealershipToCustomerStarted,
	ValetStatusValetVehicleDropOff,
	ValetStatusValetVehiclePickUp,
	ValetStatusCustomerVehiclePickUp,
	ValetStatusCustomerReturnStarted,
}

// DriverFreeingValetStatuses are the targets on which the assigned driver is
// taken off service.
var DriverFreeingValetStatuses = []ValetStatus{
	ValetStatusCustomerToDealershipCompleted,
	ValetStatusCustomerReturnCompleted,
	ValetStatusCompleted,
}

// String implements fmt.Stringer.
func (v ValetStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ValetStatus.
func (v ValetStatus) IsValid() bool {
	for _, candidate := range validValetStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// FreesDriver reports whether reaching this status puts the driver back in
// the available pool.
func (v ValetStatus) FreesDriver() bool {
	for _, candidate := range DriverFreeingValetStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseValetStatus converts raw input into a ValetStatus. Input is
// case-normalized so clients may send lower or mixed case.
func ParseValetStatus(value string) (ValetStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validValetStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid valet status %q", value)
}
