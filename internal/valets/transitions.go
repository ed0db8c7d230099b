package valets

import "github.com/angelmondragon/valetflow-backend/pkg/enums"

// allowedCurrent is the valet state machine, keyed by the TARGET state. A
// transition is legal when the valet's current state appears in the target's
// entry. Targets absent from the map are unreachable through updateValet.
var allowedCurrent = map[enums.ValetStatus][]enums.ValetStatus{
	enums.ValetStatusInProgress: {
		enums.ValetStatusCancelled,
		enums.ValetStatusDealershipToCustomerCompleted,
	},
	enums.ValetStatusDealershipToCustomerStarted: {
		enums.ValetStatusValetVehiclePickUp,
		enums.ValetStatusCancelled,
	},
	enums.ValetStatusDealershipToCustomerCompleted: {
		enums.ValetStatusDealershipToCustomerStarted,
		enums.ValetStatusCancelled,
	},
	enums.ValetStatusCustomerVehiclePickUp: {
		enums.ValetStatusDealershipToCustomerCompleted,
		enums.ValetStatusCancelled,
	},
	enums.ValetStatusCustomerToDealershipStarted: {
		enums.ValetStatusCustomerVehiclePickUp,
		enums.ValetStatusCancelled,
	},
	enums.ValetStatusCustomerToDealershipCompleted: {
		enums.ValetStatusCustomerToDealershipStarted,
		enums.ValetStatusCancelled,
	},
	enums.ValetStatusCustomerReturnStarted: {
		enums.ValetStatusCustomerToDealershipCompleted,
		enums.ValetStatusCancelled,
	},
	enums.ValetStatusCustomerReturnCompleted: {
		enums.ValetStatusCustomerReturnStarted,
		enums.ValetStatusCancelled,
	},
	enums.ValetStatusCompleted: {
		enums.ValetStatusCustomerToDealershipCompleted,
		enums.ValetStatusCustomerReturnCompleted,
	},
	// Cancellation is reachable from every non-terminal state so a run can
	// always be aborted without leaking the driver or loaner locks.
	enums.ValetStatusCancelled: {
		enums.ValetStatusNotStarted,
		enums.ValetStatusInProgress,
		enums.ValetStatusReturnInProgress,
		enums.ValetStatusValetVehiclePickUp,
		enums.ValetStatusValetVehicleDropOff,
		enums.ValetStatusDealershipToCustomerStarted,
		enums.ValetStatusDealershipToCustomerCompleted,
		enums.ValetStatusCustomerVehiclePickUp,
		enums.ValetStatusCustomerVehicleDropOff,
		enums.ValetStatusCustomerToDealershipStarted,
		enums.ValetStatusCustomerToDealershipCompleted,
		enums.ValetStatusCustomerReturnStarted,
	},
}

// CanTransition reports whether a valet in current state may move to target.
func CanTransition(current, target enums.ValetStatus) bool {
	for _, candidate := range allowedCurrent[target] {
		if candidate == current {
			return true
		}
	}
	return false
}
