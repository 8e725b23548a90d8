package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/geocode"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// OrderHandler handles HTTP requests for ride orders.
type OrderHandler struct {
	dispatchService *service.DispatchService
	orderRepo       repository.OrderRepository
	geocoder        geocode.Geocoder
}

// NewOrderHandler creates a new OrderHandler. geocoder is optional and
// may be nil; without it, orders are created with whatever coordinates
// the client supplied.
func NewOrderHandler(dispatchService *service.DispatchService, orderRepo repository.OrderRepository, geocoder geocode.Geocoder) *OrderHandler {
	return &OrderHandler{
		dispatchService: dispatchService,
		orderRepo:       orderRepo,
		geocoder:        geocoder,
	}
}

// CreateOrderRequest is the HTTP request body for order creation.
type CreateOrderRequest struct {
	CustomerPhone string   `json:"customer_phone"`
	FromAddress   string   `json:"from_address"`
	ToAddress     string   `json:"to_address"`
	FromLat       *float64 `json:"from_lat"`
	FromLng       *float64 `json:"from_lng"`
	ToLat         *float64 `json:"to_lat"`
	ToLng         *float64 `json:"to_lng"`
}

// AssignDriverRequest is the HTTP request body for driver assignment.
type AssignDriverRequest struct {
	DriverID string `json:"driver_id"`
}

// OrderResponse is the HTTP representation of a ride order.
type OrderResponse struct {
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
	HasCoords              bool     `json:"has_coords"`
	Status                 string   `json:"status"`
	CreatedAt              string   `json:"created_at"`
}

// NearestDriverResponse is the HTTP response for the nearest-driver query.
type NearestDriverResponse struct {
	DriverResponse
	DistanceM float64 `json:"distance_m"`
}

func orderResponse(o *domain.RideOrder) OrderResponse {
	resp := OrderResponse{
		ID:            o.ID,
		CustomerPhone: o.CustomerPhone,
		FromAddress:   o.FromAddress,
		ToAddress:     o.ToAddress,
		FromLat:       o.FromLat,
		FromLng:       o.FromLng,
		ToLat:         o.ToLat,
		ToLng:         o.ToLng,
		HasCoords:     o.HasPickupPosition(),
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.AssignedDriverID != "" {
		id := o.AssignedDriverID
		resp.AssignedDriver = &id
	}
	if o.AssignedDriverCallsign != "" {
		cs := o.AssignedDriverCallsign
		resp.AssignedDriverCallsign = &cs
	}
	return resp
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	// Fill missing endpoint coordinates before handing off to dispatch;
	// the service itself never geocodes.
	if h.geocoder != nil {
		ctx := c.Request.Context()
		if req.FromLat == nil || req.FromLng == nil {
			if lat, lng, ok := h.geocoder.Geocode(ctx, req.FromAddress); ok {
				req.FromLat, req.FromLng = &lat, &lng
			}
		}
		if req.ToLat == nil || req.ToLng == nil {
			if lat, lng, ok := h.geocoder.Geocode(ctx, req.ToAddress); ok {
				req.ToLat, req.ToLng = &lat, &lng
			}
		}
	}

	order, err := h.dispatchService.CreateOrder(c.Request.Context(), service.CreateOrderRequest{
		CustomerPhone: req.CustomerPhone,
		FromAddress:   req.FromAddress,
		ToAddress:     req.ToAddress,
		FromLat:       req.FromLat,
		FromLng:       req.FromLng,
		ToLat:         req.ToLat,
		ToLng:         req.ToLng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, orderResponse(order))
}

// List handles GET /api/orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orderRepo.Search(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, orderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

// NearestDriver handles GET /api/orders/:id/nearest_driver
func (h *OrderHandler) NearestDriver(c *gin.Context) {
	nearest, err := h.dispatchService.FindNearestAvailableDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, NearestDriverResponse{
		DriverResponse: driverResponse(nearest.Driver),
		DistanceM:      nearest.DistanceMeters,
	})
}

// Assign handles POST /api/orders/:id/assign
func (h *OrderHandler) Assign(c *gin.Context) {
	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.dispatchService.AssignDriver(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

// Start handles POST /api/orders/:id/start
func (h *OrderHandler) Start(c *gin.Context) {
	order, err := h.dispatchService.StartOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

// Complete handles POST /api/orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	order, err := h.dispatchService.CompleteOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

// Delete handles DELETE /api/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	if err := h.dispatchService.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
