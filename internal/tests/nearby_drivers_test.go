package tests

import (
	"context"
	"errors"
	"testing"

	"dispatch/internal/service"
)

func TestNearbyDrivers_ReflectsPositionMirror(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.driverRepo.AddDriver(availableDriver("driver-1", "alpha"))
	fx.driverRepo.AddDriver(availableDriver("driver-2", "bravo"))

	if _, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1", Lat: f64(55.75), Lng: f64(37.61),
	}); err != nil {
		t.Fatalf("position update: %v", err)
	}
	if _, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-2", Lat: f64(55.76), Lng: f64(37.62),
	}); err != nil {
		t.Fatalf("position update: %v", err)
	}
	// Going offline removes a driver from the mirror.
	if _, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-2", Status: "Offline",
	}); err != nil {
		t.Fatalf("status update: %v", err)
	}

	locations, err := fx.svc.NearbyDrivers(ctx, 55.75, 37.61, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool, len(locations))
	for _, loc := range locations {
		seen[loc.DriverID] = true
	}
	if !seen["driver-1"] {
		t.Error("driver-1 missing from nearby listing")
	}
	if seen["driver-2"] {
		t.Error("offline driver-2 still listed")
	}
}

func TestNearbyDrivers_MirrorNotConfigured(t *testing.T) {
	driverRepo := NewMockDriverRepository()
	orderRepo := NewMockOrderRepository()
	svc := service.NewDispatchService(driverRepo, orderRepo,
		NewMockTxManager(driverRepo, orderRepo), nil, NewMockPublisher())

	_, err := svc.NearbyDrivers(context.Background(), 55.75, 37.61, 5)
	if !errors.Is(err, service.ErrGeoIndexUnavailable) {
		t.Errorf("err = %v, want ErrGeoIndexUnavailable", err)
	}
}

func TestNearbyDrivers_RejectsOutOfRangeCoordinates(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	if _, err := fx.svc.NearbyDrivers(ctx, 91, 37.61, 5); !errors.Is(err, service.ErrInvalidLatitude) {
		t.Errorf("err = %v, want ErrInvalidLatitude", err)
	}
	if _, err := fx.svc.NearbyDrivers(ctx, 55.75, 181, 5); !errors.Is(err, service.ErrInvalidLongitude) {
		t.Errorf("err = %v, want ErrInvalidLongitude", err)
	}
}
