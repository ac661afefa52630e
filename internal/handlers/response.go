package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/krishna100204/EventApp/internal/helpers"
	"github.com/krishna100204/EventApp/internal/middleware"
	"github.com/krishna100204/EventApp/internal/models"
)

// writeError maps service errors onto HTTP statuses. Anything unclassified
// is handed to the ErrorHandler middleware as a 500.
func writeError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, ""

	switch {
	case errors.Is(err, models.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, models.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, models.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrUpload):
		status, msg = http.StatusBadGateway, "Image upload failed"
	case errors.Is(err, models.ErrStoreUnavailable):
		status, msg = http.StatusServiceUnavailable, "Service temporarily unavailable"
	default:
		_ = c.Error(err)
		return
	}

	c.JSON(status, models.ErrorResponse(msg))
}

func currentClaims(c *gin.Context) (*helpers.CustomClaims, bool) {
	v, exists := c.Get(middleware.ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*helpers.CustomClaims)
	return claims, ok
}
