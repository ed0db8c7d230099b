package enums

import "fmt"

// PaymentStatus mirrors the gateway intent lifecycle as recorded locally.
type PaymentStatus string

const (
	PaymentStatusRequiresPaymentMethod PaymentStatus = "REQUIRES_PAYMENT_METHOD"
	PaymentStatusRequiresConfirmation  PaymentStatus = "REQUIRES_CONFIRMATION"
	PaymentStatusProcessing            PaymentStatus = "PROCESSING"
	PaymentStatusSucceeded             PaymentStatus = "SUCCEEDED"
	PaymentStatusCancelled             PaymentStatus = "CANCELLED"
	PaymentStatusFailed                PaymentStatus = "FAILED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusRequiresPaymentMethod,
	PaymentStatusRequiresConfirmation,
	PaymentStatusProcessing,
	PaymentStatusSucceeded,
	PaymentStatusCancelled,
	PaymentStatusFailed,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
