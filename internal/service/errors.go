package service

import "errors"

var (
	// ErrDriverIDRequired is returned when an assignment request carries
	// no driver id.
	ErrDriverIDRequired = errors.New("driver_id required")

	// ErrInvalidLatitude is returned when a latitude is out of range.
	ErrInvalidLatitude = errors.New("latitude must be between -90 and 90")

	// ErrInvalidLongitude is returned when a longitude is out of range.
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")

	// ErrIncompleteCoordinatePair is returned when only one half of a
	// lat/lng pair would be set.
	ErrIncompleteCoordinatePair = errors.New("latitude and longitude must be set together")

	// ErrCustomerPhoneRequired is returned when an order has no customer phone.
	ErrCustomerPhoneRequired = errors.New("customer_phone required")

	// ErrFromAddressRequired is returned when an order has no pickup address.
	ErrFromAddressRequired = errors.New("from_address required")

	// ErrOrderMissingCoordinates is returned when the nearest-driver
	// query runs against an order without pickup coordinates.
	ErrOrderMissingCoordinates = errors.New("order has no pickup coordinates")

	// ErrNoAvailableDrivers is returned when no driver is Available with
	// a known position.
	ErrNoAvailableDrivers = errors.New("no available drivers with coordinates")

	// ErrDriverNotAvailable is returned when assigning a driver whose
	// status is not Available.
	ErrDriverNotAvailable = errors.New("driver not available")

	// ErrOrderHasNoDriver is returned when starting an order that has no
	// assigned driver.
	ErrOrderHasNoDriver = errors.New("order has no assigned driver")

	// ErrGeoIndexUnavailable is returned when a nearby-drivers query runs
	// without a position mirror configured.
	ErrGeoIndexUnavailable = errors.New("driver position index unavailable")
)
