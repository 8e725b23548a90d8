package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	c.JSON(mapErrorToHTTPStatus(err), ErrorResponse{Error: err.Error()})
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNoAvailableDrivers):
		return http.StatusNotFound

	case errors.Is(err, service.ErrDriverIDRequired),
		errors.Is(err, service.ErrInvalidLatitude),
		errors.Is(err, service.ErrInvalidLongitude),
		errors.Is(err, service.ErrIncompleteCoordinatePair),
		errors.Is(err, service.ErrCustomerPhoneRequired),
		errors.Is(err, service.ErrFromAddressRequired),
		errors.Is(err, service.ErrOrderMissingCoordinates):
		return http.StatusBadRequest

	case errors.Is(err, repository.ErrDuplicateCallsign),
		errors.Is(err, service.ErrDriverNotAvailable),
		errors.Is(err, service.ErrOrderHasNoDriver):
		return http.StatusConflict

	case errors.Is(err, service.ErrGeoIndexUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
