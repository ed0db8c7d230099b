package enums

import "fmt"

// MembershipStatus is the confirmation state of a dealership membership.
type MembershipStatus string

const (
	MembershipStatusPending   MembershipStatus = "PENDING"
	MembershipStatusConfirmed MembershipStatus = "CONFIRMED"
	MembershipStatusRevoked   MembershipStatus = "REVOKED"
)

var validMembershipStatuses = []MembershipStatus{
	MembershipStatusPending,
	MembershipStatusConfirmed,
	MembershipStatusRevoked,
}

// String implements fmt.Stringer.
func (m MembershipStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipStatus.
func (m MembershipStatus) IsValid() bool {
	for _, candidate := range validMembershipStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMembershipStatus converts raw input into a MembershipStatus.
func ParseMembershipStatus(value string) (MembershipStatus, error) {
	for _, candidate := range validMembershipStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership status %q", value)
}
