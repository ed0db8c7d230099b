package enums

import "fmt"

// NotificationType classifies rows written by the event consumer.
type NotificationType string

const (
	NotificationTypeOrderAssigned     NotificationType = "order_assigned"
	NotificationTypeOrderAccepted     NotificationType = "order_accepted"
	NotificationTypeOrderRejected     NotificationType = "order_rejected"
	NotificationTypeValetStateChanged NotificationType = "valet_state_changed"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderAssigned,
	NotificationTypeOrderAccepted,
	NotificationTypeOrderRejected,
	NotificationTypeValetStateChanged,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
