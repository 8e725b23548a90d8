package domain

import "time"

// OrderStatus represents the current status of a ride order.
type OrderStatus string

const (
	OrderStatusNew            OrderStatus = "New"
	OrderStatusDriverAssigned OrderStatus = "DriverAssigned"
	OrderStatusInProgress     OrderStatus = "InProgress"
	OrderStatusCompleted      OrderStatus = "Completed"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// RideOrder represents a customer ride order.
//
// AssignedDriverID is a weak reference: it is cleared by the store if
// the driver record is removed. AssignedDriverCallsign is a read-only
// convenience field populated by the repository from the driver record;
// it is never written back.
type RideOrder struct {
	ID                     string
	CustomerPhone          string
	FromAddress            string
	ToAddress              string
	FromLat                *float64
	FromLng                *float64
	ToLat                  *float64
	ToLng                  *float64
	AssignedDriverID       string
	AssignedDriverCallsign string
	Status                 OrderStatus
	CreatedAt              time.Time
}

// HasPickupPosition reports whether the pickup point has coordinates.
func (o *RideOrder) HasPickupPosition() bool {
	return o.FromLat != nil && o.FromLng != nil
}
