package valueobject

import (
	"fmt"
	"strings"
)

const (
	streetSeparator = ", "
	regionSeparator = " - "

	maxStreetLength = 200
	maxCityLength   = 100
	maxStateLength  = 100
	maxZipLength    = 20
)

// Address is an immutable shipping address value object.
// Street and city are required for delivery; state and zip are optional.
type Address struct {
	street string
	city   string
	state  string
	zip    string
}

// NewAddress builds an Address from its components. Whitespace is trimmed and
// lengths are checked; requiredness is reported by IsDeliverable.
func NewAddress(street, city, state, zip string) (Address, error) {
	addr := Address{
		street: strings.TrimSpace(street),
		city:   strings.TrimSpace(city),
		state:  strings.TrimSpace(state),
		zip:    strings.TrimSpace(zip),
	}

	switch {
	case len(addr.street) > maxStreetLength:
		return Address{}, fmt.Errorf("street cannot exceed %d characters", maxStreetLength)
	case len(addr.city) > maxCityLength:
		return Address{}, fmt.Errorf("city cannot exceed %d characters", maxCityLength)
	case len(addr.state) > maxStateLength:
		return Address{}, fmt.Errorf("state cannot exceed %d characters", maxStateLength)
	case len(addr.zip) > maxZipLength:
		return Address{}, fmt.Errorf("zip cannot exceed %d characters", maxZipLength)
	}

	return addr, nil
}

// Street returns the street line.
func (a Address) Street() string { return a.street }

// City returns the city.
func (a Address) City() string { return a.city }

// State returns the state or region.
func (a Address) State() string { return a.state }

// Zip returns the postal code.
func (a Address) Zip() string { return a.zip }

// IsEmpty reports whether every component is blank.
func (a Address) IsEmpty() bool {
	return a.street == "" && a.city == "" && a.state == "" && a.zip == ""
}

// IsDeliverable reports whether the required components are present.
func (a Address) IsDeliverable() bool {
	return a.street != "" && a.city != ""
}

// Format renders the single-line form "street, city - state - zip".
// Missing components are skipped together with their separator.
func (a Address) Format() string {
	head := joinNonEmpty(streetSeparator, a.street, a.city)
	return joinNonEmpty(regionSeparator, head, a.state, a.zip)
}

// String returns the formatted address.
func (a Address) String() string {
	return a.Format()
}

// Equals returns true if both addresses have identical components.
func (a Address) Equals(other Address) bool {
	return a == other
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
