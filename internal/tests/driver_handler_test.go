package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"dispatch/internal/handler"
	"dispatch/internal/service"
)

func newDriverRouter(fx *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewDriverHandler(fx.svc, fx.driverRepo)
	r := gin.New()
	r.POST("/api/drivers", h.Create)
	r.GET("/api/drivers/nearby", h.Nearby)
	return r
}

func TestDriverCreate_DuplicateCallsignConflict(t *testing.T) {
	fx := newFixture()
	fx.driverRepo.AddDriver(availableDriver("driver-1", "alpha"))
	router := newDriverRouter(fx)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/drivers", strings.NewReader(`{"callsign":"alpha"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	drivers, err := fx.driverRepo.Search(context.Background(), "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(drivers) != 1 {
		t.Errorf("%d drivers stored, want only the seeded one", len(drivers))
	}
}

func TestDriversNearby_ReturnsMirroredPositions(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.driverRepo.AddDriver(availableDriver("driver-1", "alpha"))
	if _, err := fx.svc.UpdateDriverPosition(ctx, service.UpdatePositionRequest{
		DriverID: "driver-1", Lat: f64(55.75), Lng: f64(37.61),
	}); err != nil {
		t.Fatalf("position update: %v", err)
	}
	router := newDriverRouter(fx)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/drivers/nearby?lat=55.75&lng=37.61&radius_km=2", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body []handler.NearbyDriverResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 || body[0].DriverID != "driver-1" {
		t.Errorf("body = %+v, want driver-1 only", body)
	}
	if body[0].Lat != 55.75 || body[0].Lng != 37.61 {
		t.Errorf("position = (%v, %v), want (55.75, 37.61)", body[0].Lat, body[0].Lng)
	}
}

func TestDriversNearby_RejectsMalformedQuery(t *testing.T) {
	fx := newFixture()
	router := newDriverRouter(fx)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/drivers/nearby?lat=abc&lng=37.61", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
