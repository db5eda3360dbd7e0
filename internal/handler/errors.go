package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"garden-server/internal/models"
)

// apiError is the standard error payload.
type apiError struct {
	Message string `json:"message"`
}

// handleServiceError maps service errors to HTTP status codes.
func handleServiceError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrParentExists):
		status = http.StatusConflict
	case errors.Is(err, models.ErrParentNotFound),
		errors.Is(err, models.ErrGardenNotFound),
		errors.Is(err, models.ErrChildNotFound),
		errors.Is(err, models.ErrProfileNotFound),
		errors.Is(err, models.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUnknownScenario),
		errors.Is(err, models.ErrSessionNotActive):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
	}

	c.Error(err)
	c.AbortWithStatusJSON(status, apiError{Message: err.Error()})
}
