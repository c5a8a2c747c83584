package enums

import "fmt"

// TransportStatus tracks the lifecycle of a single transport leg.
type TransportStatus string

const (
	TransportStatusPickedUp  TransportStatus = "picked_up"
	TransportStatusInTransit TransportStatus = "in_transit"
	TransportStatusDelivered TransportStatus = "delivered"
)

var validTransportStatuses = []TransportStatus{
	TransportStatusPickedUp,
	TransportStatusInTransit,
	TransportStatusDelivered,
}

// String implements fmt.Stringer.
func (t TransportStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransportStatus.
func (t TransportStatus) IsValid() bool {
	for _, candidate := range validTransportStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the leg is finished.
func (t TransportStatus) IsTerminal() bool {
	return t == TransportStatusDelivered
}

// ParseTransportStatus converts raw input into a TransportStatus.
func ParseTransportStatus(value string) (TransportStatus, error) {
	for _, candidate := range validTransportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transport status %q", value)
}
