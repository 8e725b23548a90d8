package service

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"dispatch/internal/broadcast"
	"dispatch/internal/domain"
	"dispatch/internal/geo"
	redisx "dispatch/internal/redis"
	"dispatch/internal/repository"
)

// DispatchService orchestrates driver and order status transitions,
// nearest-driver selection and event broadcast.
//
// Every mutating operation persists before it broadcasts, and a
// broadcast failure never rolls back or fails a persisted mutation.
type DispatchService struct {
	drivers   repository.DriverRepository
	orders    repository.OrderRepository
	tx        repository.TxManager
	locations redisx.LocationStoreInterface
	publisher broadcast.Publisher
}

// NewDispatchService creates a new DispatchService. locations is an
// optional advisory geo mirror and may be nil.
func NewDispatchService(
	drivers repository.DriverRepository,
	orders repository.OrderRepository,
	tx repository.TxManager,
	locations redisx.LocationStoreInterface,
	publisher broadcast.Publisher,
) *DispatchService {
	if publisher == nil {
		publisher = broadcast.Nop{}
	}
	return &DispatchService{
		drivers:   drivers,
		orders:    orders,
		tx:        tx,
		locations: locations,
		publisher: publisher,
	}
}

// UpdatePositionRequest contains the parameters for updating driver telemetry.
// Nil fields are left untouched.
type UpdatePositionRequest struct {
	DriverID string
	Lat      *float64
	Lng      *float64
	Status   string
}

// UpdateDriverPosition applies position telemetry and an optional status
// change to a driver. The driver row is not locked: position updates are
// advisory and last-write-wins is acceptable. An unrecognized status is
// silently ignored so that forward-compatible clients keep working.
func (s *DispatchService) UpdateDriverPosition(ctx context.Context, req UpdatePositionRequest) (*domain.Driver, error) {
	driver, err := s.drivers.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	if req.Lat != nil {
		if !isValidLatitude(*req.Lat) {
			return nil, ErrInvalidLatitude
		}
		driver.Lat = req.Lat
	}
	if req.Lng != nil {
		if !isValidLongitude(*req.Lng) {
			return nil, ErrInvalidLongitude
		}
		driver.Lng = req.Lng
	}
	if (driver.Lat == nil) != (driver.Lng == nil) {
		return nil, ErrIncompleteCoordinatePair
	}

	if status := domain.DriverStatus(req.Status); req.Status != "" && status.Valid() {
		driver.Status = status
	}

	if err := s.drivers.Update(ctx, driver); err != nil {
		return nil, err
	}

	s.mirrorPosition(ctx, driver)
	s.publisher.Publish(ctx, broadcast.DriverUpdated(driver))
	return driver, nil
}

// CreateOrderRequest contains the parameters for creating a ride order.
// Endpoint coordinates are optional; the API layer may geocode addresses
// before calling this operation.
type CreateOrderRequest struct {
	CustomerPhone string
	FromAddress   string
	ToAddress     string
	FromLat       *float64
	FromLng       *float64
	ToLat         *float64
	ToLng         *float64
}

// CreateOrder creates a new order in status New.
func (s *DispatchService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.RideOrder, error) {
	if req.CustomerPhone == "" {
		return nil, ErrCustomerPhoneRequired
	}
	if req.FromAddress == "" {
		return nil, ErrFromAddressRequired
	}
	if (req.FromLat == nil) != (req.FromLng == nil) || (req.ToLat == nil) != (req.ToLng == nil) {
		return nil, ErrIncompleteCoordinatePair
	}

	order := &domain.RideOrder{
		ID:            uuid.New().String(),
		CustomerPhone: req.CustomerPhone,
		FromAddress:   req.FromAddress,
		ToAddress:     req.ToAddress,
		FromLat:       req.FromLat,
		FromLng:       req.FromLng,
		ToLat:         req.ToLat,
		ToLng:         req.ToLng,
		Status:        domain.OrderStatusNew,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, broadcast.OrderEvent(broadcast.EventOrderCreated, order))
	return order, nil
}

// NearestDriver is the result of a nearest-driver query.
type NearestDriver struct {
	Driver *domain.Driver
	// DistanceMeters is the haversine distance from the order's pickup
	// point, rounded to one decimal place.
	DistanceMeters float64
}

// FindNearestAvailableDriver returns the Available driver with a known
// position closest to the order's pickup point. Read-only: no state is
// mutated and nothing is broadcast.
//
// Candidates are scanned in callsign order and a strictly smaller
// distance is required to displace the current best, so ties resolve to
// the candidate with the lexicographically smallest callsign.
func (s *DispatchService) FindNearestAvailableDriver(ctx context.Context, orderID string) (*NearestDriver, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.HasPickupPosition() {
		return nil, ErrOrderMissingCoordinates
	}

	candidates, err := s.drivers.ListAvailableWithPosition(ctx)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoAvailableDrivers
	}

	var best *domain.Driver
	bestDist := math.Inf(1)
	for _, d := range candidates {
		dist := geo.DistanceMeters(*order.FromLat, *order.FromLng, *d.Lat, *d.Lng)
		if dist < bestDist {
			best, bestDist = d, dist
		}
	}

	return &NearestDriver{
		Driver:         best,
		DistanceMeters: math.Round(bestDist*10) / 10,
	}, nil
}

// AssignDriver atomically assigns an Available driver to an order.
//
// Both the driver and the order rows are locked for the duration of the
// transaction, so of two callers racing on the same driver the second
// observes the Busy status written by the first and is rejected. The
// broadcast happens after the locks are released.
func (s *DispatchService) AssignDriver(ctx context.Context, orderID, driverID string) (*domain.RideOrder, error) {
	if driverID == "" {
		return nil, ErrDriverIDRequired
	}

	var order *domain.RideOrder
	err := s.tx.InTx(ctx, func(store repository.Store) error {
		var err error
		order, err = store.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		driver, err := store.Drivers().GetForUpdate(ctx, driverID)
		if err != nil {
			return err
		}
		if driver.Status != domain.DriverStatusAvailable {
			return ErrDriverNotAvailable
		}

		driver.Status = domain.DriverStatusBusy
		order.AssignedDriverID = driver.ID
		order.AssignedDriverCallsign = driver.Callsign
		order.Status = domain.OrderStatusDriverAssigned

		if err := store.Drivers().Update(ctx, driver); err != nil {
			return err
		}
		return store.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, broadcast.OrderEvent(broadcast.EventOrderAssigned, order))
	return order, nil
}

// StartOrder moves an assigned order to InProgress.
func (s *DispatchService) StartOrder(ctx context.Context, orderID string) (*domain.RideOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AssignedDriverID == "" {
		return nil, ErrOrderHasNoDriver
	}

	order.Status = domain.OrderStatusInProgress
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, broadcast.OrderEvent(broadcast.EventOrderStarted, order))
	return order, nil
}

// CompleteOrder moves an order to Completed from any state and frees the
// assigned driver, if one exists. No precondition is checked: dispatchers
// correct mistakes by completing orders outright, and a repeated call is
// a no-op transition to the same terminal state. The driver reference is
// kept on the completed order for history.
func (s *DispatchService) CompleteOrder(ctx context.Context, orderID string) (*domain.RideOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCompleted

	if order.AssignedDriverID != "" {
		driver, err := s.drivers.GetByID(ctx, order.AssignedDriverID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// Weak reference: the driver record is gone, nothing to free.
		case err != nil:
			return nil, err
		default:
			driver.Status = domain.DriverStatusAvailable
			if err := s.drivers.Update(ctx, driver); err != nil {
				return nil, err
			}
		}
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, broadcast.OrderEvent(broadcast.EventOrderCompleted, order))
	return order, nil
}

// DeleteOrder removes an order and announces the deletion carrying only
// the order's identity.
func (s *DispatchService) DeleteOrder(ctx context.Context, orderID string) error {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return err
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}

	s.publisher.Publish(ctx, broadcast.OrderDeleted(orderID))
	return nil
}

// NearbyDrivers queries the position mirror for drivers within radiusKm
// of the given point, nearest first. The mirror is advisory telemetry
// for dispatcher boards; assignment decisions read the store of record
// and never depend on this index.
func (s *DispatchService) NearbyDrivers(ctx context.Context, lat, lng, radiusKm float64) ([]redisx.DriverLocation, error) {
	if s.locations == nil {
		return nil, ErrGeoIndexUnavailable
	}
	if !isValidLatitude(lat) {
		return nil, ErrInvalidLatitude
	}
	if !isValidLongitude(lng) {
		return nil, ErrInvalidLongitude
	}
	return s.locations.FindNearbyDrivers(ctx, lat, lng, radiusKm)
}

// mirrorPosition keeps the advisory Redis geo index in step with the
// driver record. Mirror failures are logged and swallowed: the index is
// not load-bearing.
func (s *DispatchService) mirrorPosition(ctx context.Context, driver *domain.Driver) {
	if s.locations == nil {
		return
	}
	var err error
	if driver.Status == domain.DriverStatusOffline || !driver.HasPosition() {
		err = s.locations.RemoveLocation(ctx, driver.ID)
	} else {
		err = s.locations.UpdateLocation(ctx, driver.ID, *driver.Lat, *driver.Lng)
	}
	if err != nil {
		log.Printf("dispatch: position mirror for driver %s failed: %v", driver.ID, err)
	}
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
