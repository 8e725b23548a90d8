package tests

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/broadcast"
	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

func f64(v float64) *float64 { return &v }

type fixture struct {
	driverRepo *MockDriverRepository
	orderRepo  *MockOrderRepository
	locations  *MockLocationStore
	publisher  *MockPublisher
	svc        *service.DispatchService
}

func newFixture() *fixture {
	driverRepo := NewMockDriverRepository()
	orderRepo := NewMockOrderRepository()
	locations := NewMockLocationStore()
	publisher := NewMockPublisher()
	txManager := NewMockTxManager(driverRepo, orderRepo)
	return &fixture{
		driverRepo: driverRepo,
		orderRepo:  orderRepo,
		locations:  locations,
		publisher:  publisher,
		svc:        service.NewDispatchService(driverRepo, orderRepo, txManager, locations, publisher),
	}
}

func TestUpdateDriverPosition_SetsPositionAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.driverRepo.AddDriver(&domain.Driver{
		ID:       "driver-1",
		Callsign: "alpha",
		Status:   domain.DriverStatusAvailable,
	})

	driver, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1",
		Lat:      f64(55.75),
		Lng:      f64(37.61),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if driver.Lat == nil || *driver.Lat != 55.75 || driver.Lng == nil || *driver.Lng != 37.61 {
		t.Errorf("position not applied: lat=%v lng=%v", driver.Lat, driver.Lng)
	}

	stored := fx.driverRepo.GetDriver("driver-1")
	if !stored.HasPosition() {
		t.Error("position not persisted")
	}

	ev := fx.publisher.LastEvent()
	if ev.Type != broadcast.EventDriverUpdate {
		t.Fatalf("expected driver_update event, got %q", ev.Type)
	}
	if ev.Driver == nil || ev.Driver.ID != "driver-1" || ev.Driver.Lat == nil {
		t.Errorf("event carries wrong driver payload: %+v", ev.Driver)
	}

	if _, ok := fx.locations.Location("driver-1"); !ok {
		t.Error("position not mirrored to geo index")
	}
}

func TestUpdateDriverPosition_AppliesRecognizedStatus(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.driverRepo.AddDriver(&domain.Driver{
		ID:       "driver-1",
		Callsign: "alpha",
		Status:   domain.DriverStatusAvailable,
		Lat:      f64(55.75),
		Lng:      f64(37.61),
	})

	driver, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1",
		Status:   "Offline",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver.Status != domain.DriverStatusOffline {
		t.Errorf("status = %s, want Offline", driver.Status)
	}

	// An offline driver must drop out of the geo mirror.
	if _, ok := fx.locations.Location("driver-1"); ok {
		t.Error("offline driver still present in geo index")
	}
}

func TestUpdateDriverPosition_IgnoresUnrecognizedStatus(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.driverRepo.AddDriver(&domain.Driver{
		ID:       "driver-1",
		Callsign: "alpha",
		Status:   domain.DriverStatusAvailable,
	})

	driver, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1",
		Status:   "OnVacation",
	})
	if err != nil {
		t.Fatalf("unrecognized status must not fail: %v", err)
	}
	if driver.Status != domain.DriverStatusAvailable {
		t.Errorf("status changed to %s, want Available untouched", driver.Status)
	}
}

func TestUpdateDriverPosition_RejectsOutOfRangeCoordinates(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.driverRepo.AddDriver(&domain.Driver{
		ID:       "driver-1",
		Callsign: "alpha",
		Status:   domain.DriverStatusAvailable,
	})

	_, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1",
		Lat:      f64(91.0),
		Lng:      f64(37.61),
	})
	if !errors.Is(err, service.ErrInvalidLatitude) {
		t.Errorf("err = %v, want ErrInvalidLatitude", err)
	}

	_, err = fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1",
		Lat:      f64(55.75),
		Lng:      f64(181.0),
	})
	if !errors.Is(err, service.ErrInvalidLongitude) {
		t.Errorf("err = %v, want ErrInvalidLongitude", err)
	}

	if len(fx.publisher.Events()) != 0 {
		t.Error("no event may be published for a rejected update")
	}
}

func TestUpdateDriverPosition_RejectsHalfPair(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.driverRepo.AddDriver(&domain.Driver{
		ID:       "driver-1",
		Callsign: "alpha",
		Status:   domain.DriverStatusAvailable,
	})

	_, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1",
		Lat:      f64(55.75),
	})
	if !errors.Is(err, service.ErrIncompleteCoordinatePair) {
		t.Errorf("err = %v, want ErrIncompleteCoordinatePair", err)
	}
}

func TestUpdateDriverPosition_CompletesExistingHalfPair(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.driverRepo.AddDriver(&domain.Driver{
		ID:       "driver-1",
		Callsign: "alpha",
		Status:   domain.DriverStatusAvailable,
		Lat:      f64(55.75),
		Lng:      f64(37.61),
	})

	// Updating a single half of an existing pair keeps the pair whole.
	driver, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1",
		Lat:      f64(55.76),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *driver.Lat != 55.76 || *driver.Lng != 37.61 {
		t.Errorf("got (%v, %v), want (55.76, 37.61)", *driver.Lat, *driver.Lng)
	}
}

func TestUpdateDriverPosition_UnknownDriver(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.UpdateDriverPosition(context.Background(), service.UpdatePositionRequest{
		DriverID: "ghost",
		Lat:      f64(1),
		Lng:      f64(1),
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateDriverPosition_MirrorFailureDoesNotFailUpdate(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.locations.UpdateError = errors.New("redis down")
	fx.driverRepo.AddDriver(&domain.Driver{
		ID:       "driver-1",
		Callsign: "alpha",
		Status:   domain.DriverStatusAvailable,
	})

	_, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1",
		Lat:      f64(55.75),
		Lng:      f64(37.61),
	})
	if err != nil {
		t.Fatalf("advisory mirror failure must not surface: %v", err)
	}
	if ev := fx.publisher.LastEvent(); ev.Type != broadcast.EventDriverUpdate {
		t.Error("update must still broadcast after mirror failure")
	}
}
