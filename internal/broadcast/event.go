package broadcast

import (
	"context"
	"time"

	"dispatch/internal/domain"
)

// EventType discriminates dispatch events on the shared channel.
type EventType string

const (
	EventDriverUpdate   EventType = "driver_update"
	EventOrderCreated   EventType = "order_created"
	EventOrderAssigned  EventType = "order_assigned"
	EventOrderStarted   EventType = "order_started"
	EventOrderCompleted EventType = "order_completed"
	EventOrderDeleted   EventType = "order_deleted"
)

// DriverPayload is the wire representation of a driver in events.
type DriverPayload struct {
	ID       string   `json:"id"`
	Callsign string   `json:"callsign"`
	Status   string   `json:"status"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

// OrderPayload is the wire representation of a ride order in events.
type OrderPayload struct {
	ID                     string   `json:"id"`
	CustomerPhone          string   `json:"customer_phone"`
	FromAddress            string   `json:"from_address"`
	ToAddress              string   `json:"to_address"`
	FromLat                *float64 `json:"from_lat"`
	FromLng                *float64 `json:"from_lng"`
	ToLat                  *float64 `json:"to_lat"`
	ToLng                  *float64 `json:"to_lng"`
	AssignedDriver         *string  `json:"assigned_driver"`
	AssignedDriverCallsign *string  `json:"assigned_driver_callsign"`
	Status                 string   `json:"status"`
	CreatedAt              string   `json:"created_at"`
}

// Event is a single dispatch state-change event. Exactly one of the
// payload fields is set, depending on Type.
type Event struct {
	Type    EventType      `json:"type"`
	Driver  *DriverPayload `json:"driver,omitempty"`
	Order   *OrderPayload  `json:"order,omitempty"`
	OrderID string         `json:"order_id,omitempty"`
}

// Publisher fans out events to subscribed real-time clients.
// Publish is best-effort: implementations log and swallow transport
// failures, never surfacing them to the caller. Dispatch state changes
// commit to the store even when notification infrastructure is down.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// DriverUpdated builds a driver_update event.
func DriverUpdated(d *domain.Driver) Event {
	return Event{Type: EventDriverUpdate, Driver: driverPayload(d)}
}

// OrderEvent builds one of the full-record order events.
func OrderEvent(t EventType, o *domain.RideOrder) Event {
	return Event{Type: t, Order: orderPayload(o)}
}

// OrderDeleted builds an order_deleted event carrying only the identity
// of the removed order.
func OrderDeleted(orderID string) Event {
	return Event{Type: EventOrderDeleted, OrderID: orderID}
}

func driverPayload(d *domain.Driver) *DriverPayload {
	return &DriverPayload{
		ID:       d.ID,
		Callsign: d.Callsign,
		Status:   string(d.Status),
		Lat:      d.Lat,
		Lng:      d.Lng,
	}
}

func orderPayload(o *domain.RideOrder) *OrderPayload {
	p := &OrderPayload{
		ID:            o.ID,
		CustomerPhone: o.CustomerPhone,
		FromAddress:   o.FromAddress,
		ToAddress:     o.ToAddress,
		FromLat:       o.FromLat,
		FromLng:       o.FromLng,
		ToLat:         o.ToLat,
		ToLng:         o.ToLng,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.AssignedDriverID != "" {
		id := o.AssignedDriverID
		p.AssignedDriver = &id
	}
	if o.AssignedDriverCallsign != "" {
		cs := o.AssignedDriverCallsign
		p.AssignedDriverCallsign = &cs
	}
	return p
}
