package enums

import "fmt"

// LinkType discriminates product-backed links from free-standing amount requests.
type LinkType string

const (
	LinkTypeProduct LinkType = "product"
	LinkTypeGeneral LinkType = "general"
)

var validLinkTypes = []LinkType{
	LinkTypeProduct,
	LinkTypeGeneral,
}

// String implements fmt.Stringer.
func (l LinkType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LinkType.
func (l LinkType) IsValid() bool {
	for _, candidate := range validLinkTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLinkType converts raw input into a LinkType.
func ParseLinkType(value string) (LinkType, error) {
	for _, candidate := range validLinkTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid link type %q", value)
}
