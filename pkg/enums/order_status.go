package enums

import "fmt"

// OrderStatus tracks the lifecycle of a service/delivery order. Writes to this
// field are owned by the assignment and valet engines; CRUD consumers only
// read it.
type OrderStatus string

const (
	OrderStatusInitiated        OrderStatus = "INITIATED"
	OrderStatusReturnInitiated  OrderStatus = "RETURN_INITIATED"
	OrderStatusAssigned         OrderStatus = "ASSIGNED"
	OrderStatusReturnAssigned   OrderStatus = "RETURN_ASSIGNED"
	OrderStatusPending          OrderStatus = "PENDING"
	OrderStatusReturnPending    OrderStatus = "RETURN_PENDING"
	OrderStatusInProgress       OrderStatus = "IN_PROGRESS"
	OrderStatusReturnInProgress OrderStatus = "RETURN_IN_PROGRESS"
	OrderStatusAccepted         OrderStatus = "ACCEPTED"
	OrderStatusReturnAccepted   OrderStatus = "RETURN_ACCEPTED"
	OrderStatusDeclined         OrderStatus = "DECLINED"
	OrderStatusReturnDeclined   OrderStatus = "RETURN_DECLINED"
	OrderStatusCancelled        OrderStatus = "CANCELLED"
	OrderStatusReturnCancelled  OrderStatus = "RETURN_CANCELLED"
	OrderStatusCompleted        OrderStatus = "COMPLETED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusInitiated,
	OrderStatusReturnInitiated,
	OrderStatusAssigned,
	OrderStatusReturnAssigned,
	OrderStatusPending,
	OrderStatusReturnPending,
	OrderStatusInProgress,
	OrderStatusReturnInProgress,
	OrderStatusAccepted,
	OrderStatusReturnAccepted,
	OrderStatusDeclined,
	OrderStatusReturnDeclined,
	OrderStatusCancelled,
	OrderStatusReturnCancelled,
	OrderStatusCompleted,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order can no longer change state.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusReturnCancelled, OrderStatusDeclined, OrderStatusReturnDeclined:
		return true
	default:
		return false
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
