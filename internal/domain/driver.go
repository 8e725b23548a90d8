package domain

// DriverStatus represents the current status of a driver.
type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "Available"
	DriverStatusBusy      DriverStatus = "Busy"
	DriverStatusOffline   DriverStatus = "Offline"
)

// Valid reports whether s is a recognized driver status.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusAvailable, DriverStatusBusy, DriverStatusOffline:
		return true
	}
	return false
}

// Driver represents a driver in the system.
// Lat and Lng are set together or not at all; position is advisory
// telemetry, not a consistency-critical field.
type Driver struct {
	ID       string
	Callsign string
	Status   DriverStatus
	Lat      *float64
	Lng      *float64
}

// HasPosition reports whether the driver has a known position.
func (d *Driver) HasPosition() bool {
	return d.Lat != nil && d.Lng != nil
}
