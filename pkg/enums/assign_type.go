package enums

import (
	"fmt"
	"strings"
)

// AssignType distinguishes the first delivery leg from the return leg.
type AssignType string

const (
	AssignTypeInitial AssignType = "INITIAL"
	AssignTypeReturn  AssignType = "RETURN"
)

var validAssignTypes = []AssignType{
	AssignTypeInitial,
	AssignTypeReturn,
}

// String implements fmt.Stringer.
func (a AssignType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignType.
func (a AssignType) IsValid() bool {
	for _, candidate := range validAssignTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssignType converts raw input into an AssignType. Input is
// case-insensitive because mobile clients send lowercase values.
func ParseAssignType(value string) (AssignType, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validAssignTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assign type %q", value)
}
