package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

func newOrderAt(id string, lat, lng float64) *domain.RideOrder {
	return &domain.RideOrder{
		ID:            id,
		CustomerPhone: "+70000000001",
		FromAddress:   "Tverskaya 1",
		FromLat:       &lat,
		FromLng:       &lng,
		Status:        domain.OrderStatusNew,
		CreatedAt:     time.Now(),
	}
}

func TestFindNearestAvailableDriver_PicksClosest(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.orderRepo.AddOrder(newOrderAt("order-1", 55.75, 37.61))
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-a", Callsign: "alpha", Status: domain.DriverStatusAvailable,
		Lat: f64(55.75), Lng: f64(37.61),
	})
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-b", Callsign: "bravo", Status: domain.DriverStatusAvailable,
		Lat: f64(10), Lng: f64(10),
	})

	nearest, err := fx.svc.FindNearestAvailableDriver(ctx, "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nearest.Driver.ID != "driver-a" {
		t.Errorf("picked %s, want driver-a", nearest.Driver.ID)
	}
	if nearest.DistanceMeters != 0.0 {
		t.Errorf("distance = %v, want 0.0", nearest.DistanceMeters)
	}
	if len(fx.publisher.Events()) != 0 {
		t.Error("nearest-driver query must not broadcast")
	}
}

func TestFindNearestAvailableDriver_TieBreaksByCallsign(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.orderRepo.AddOrder(newOrderAt("order-1", 55.75, 37.61))
	// Equidistant candidates; the scan order is the repository's stable
	// callsign ordering and the first minimum wins.
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-z", Callsign: "zulu", Status: domain.DriverStatusAvailable,
		Lat: f64(55.75), Lng: f64(37.61),
	})
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-a", Callsign: "alpha", Status: domain.DriverStatusAvailable,
		Lat: f64(55.75), Lng: f64(37.61),
	})

	nearest, err := fx.svc.FindNearestAvailableDriver(ctx, "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nearest.Driver.Callsign != "alpha" {
		t.Errorf("tie resolved to %s, want alpha", nearest.Driver.Callsign)
	}
}

func TestFindNearestAvailableDriver_SkipsBusyAndPositionless(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.orderRepo.AddOrder(newOrderAt("order-1", 55.75, 37.61))
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-busy", Callsign: "busy", Status: domain.DriverStatusBusy,
		Lat: f64(55.75), Lng: f64(37.61),
	})
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-blind", Callsign: "blind", Status: domain.DriverStatusAvailable,
	})
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-far", Callsign: "far", Status: domain.DriverStatusAvailable,
		Lat: f64(56.0), Lng: f64(38.0),
	})

	nearest, err := fx.svc.FindNearestAvailableDriver(ctx, "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nearest.Driver.ID != "driver-far" {
		t.Errorf("picked %s, want driver-far", nearest.Driver.ID)
	}
}

func TestFindNearestAvailableDriver_OrderWithoutCoordinates(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.orderRepo.AddOrder(&domain.RideOrder{
		ID:            "order-1",
		CustomerPhone: "+70000000001",
		FromAddress:   "Tverskaya 1",
		Status:        domain.OrderStatusNew,
		CreatedAt:     time.Now(),
	})
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-a", Callsign: "alpha", Status: domain.DriverStatusAvailable,
		Lat: f64(55.75), Lng: f64(37.61),
	})

	_, err := fx.svc.FindNearestAvailableDriver(ctx, "order-1")
	if !errors.Is(err, service.ErrOrderMissingCoordinates) {
		t.Errorf("err = %v, want ErrOrderMissingCoordinates", err)
	}
}

func TestFindNearestAvailableDriver_NoCandidates(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.orderRepo.AddOrder(newOrderAt("order-1", 55.75, 37.61))
	fx.driverRepo.AddDriver(&domain.Driver{
		ID: "driver-offline", Callsign: "off", Status: domain.DriverStatusOffline,
		Lat: f64(55.75), Lng: f64(37.61),
	})

	_, err := fx.svc.FindNearestAvailableDriver(ctx, "order-1")
	if !errors.Is(err, service.ErrNoAvailableDrivers) {
		t.Errorf("err = %v, want ErrNoAvailableDrivers", err)
	}
}

func TestFindNearestAvailableDriver_UnknownOrder(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.FindNearestAvailableDriver(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
