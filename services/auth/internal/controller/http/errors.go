package http

import (
	"errors"
	"net/http"

	"authkit/pkg/logger"
	"authkit/pkg/middleware"
	"authkit/services/auth/internal/entity"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation),
		errors.Is(err, entity.ErrAllFieldsRequired),
		errors.Is(err, entity.ErrInvalidCredentials),
		errors.Is(err, entity.ErrInvalidPassword),
		errors.Is(err, entity.ErrInvalidOrExpiredToken),
		errors.Is(err, entity.ErrAlreadyVerified):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, middleware.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, middleware.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrEmailDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
