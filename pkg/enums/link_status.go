package enums

import "fmt"

// LinkStatus is the lifecycle state of a payment link.
type LinkStatus string

const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusInactive LinkStatus = "inactive"
)

var validLinkStatuses = []LinkStatus{
	LinkStatusActive,
	LinkStatusInactive,
}

// String implements fmt.Stringer.
func (l LinkStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LinkStatus.
func (l LinkStatus) IsValid() bool {
	for _, candidate := range validLinkStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLinkStatus converts raw input into a LinkStatus.
func ParseLinkStatus(value string) (LinkStatus, error) {
	for _, candidate := range validLinkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid link status %q", value)
}
