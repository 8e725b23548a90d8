package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	dispatchService *service.DispatchService
	driverRepo      repository.DriverRepository
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(dispatchService *service.DispatchService, driverRepo repository.DriverRepository) *DriverHandler {
	return &DriverHandler{
		dispatchService: dispatchService,
		driverRepo:      driverRepo,
	}
}

// CreateDriverRequest is the HTTP request body for driver creation.
type CreateDriverRequest struct {
	Callsign string   `json:"callsign"`
	Status   string   `json:"status"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

// UpdatePositionRequest is the HTTP request body for position updates.
type UpdatePositionRequest struct {
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Status string   `json:"status"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	ID       string   `json:"id"`
	Callsign string   `json:"callsign"`
	Status   string   `json:"status"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

func driverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:       d.ID,
		Callsign: d.Callsign,
		Status:   string(d.Status),
		Lat:      d.Lat,
		Lng:      d.Lng,
	}
}

// Create handles POST /api/drivers
func (h *DriverHandler) Create(c *gin.Context) {
	var req CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Callsign == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "callsign is required"})
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		respondError(c, service.ErrIncompleteCoordinatePair)
		return
	}

	// The unique constraint still catches races; this keeps the common
	// case off the error-code mapping path.
	if _, err := h.driverRepo.GetByCallsign(c.Request.Context(), req.Callsign); err == nil {
		respondError(c, repository.ErrDuplicateCallsign)
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}

	status := domain.DriverStatusAvailable
	if s := domain.DriverStatus(req.Status); s.Valid() {
		status = s
	}

	driver := &domain.Driver{
		ID:       uuid.New().String(),
		Callsign: req.Callsign,
		Status:   status,
		Lat:      req.Lat,
		Lng:      req.Lng,
	}

	if err := h.driverRepo.Create(c.Request.Context(), driver); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, driverResponse(driver))
}

// List handles GET /api/drivers
func (h *DriverHandler) List(c *gin.Context) {
	drivers, err := h.driverRepo.Search(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, driverResponse(d))
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/drivers/:id
func (h *DriverHandler) Get(c *gin.Context) {
	driver, err := h.driverRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, driverResponse(driver))
}

// Delete handles DELETE /api/drivers/:id
func (h *DriverHandler) Delete(c *gin.Context) {
	if err := h.driverRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NearbyDriverResponse is one entry of the nearby-drivers listing.
type NearbyDriverResponse struct {
	DriverID string  `json:"driver_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Nearby handles GET /api/drivers/nearby
func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng must be numeric"})
		return
	}

	radiusKm := 5.0
	if raw := c.Query("radius_km"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "radius_km must be a positive number"})
			return
		}
		radiusKm = r
	}

	locations, err := h.dispatchService.NearbyDrivers(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]NearbyDriverResponse, 0, len(locations))
	for _, loc := range locations {
		response = append(response, NearbyDriverResponse{
			DriverID: loc.DriverID,
			Lat:      loc.Lat,
			Lng:      loc.Lng,
		})
	}
	c.JSON(http.StatusOK, response)
}

// UpdatePosition handles POST /api/drivers/:id/position
func (h *DriverHandler) UpdatePosition(c *gin.Context) {
	var req UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng must be numeric"})
		return
	}

	driver, err := h.dispatchService.UpdateDriverPosition(c.Request.Context(), service.UpdatePositionRequest{
		DriverID: c.Param("id"),
		Lat:      req.Lat,
		Lng:      req.Lng,
		Status:   req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, driverResponse(driver))
}
