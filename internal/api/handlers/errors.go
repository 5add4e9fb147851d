package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
)

// respondServiceError maps service errors onto HTTP responses. Sentinel
// messages go out verbatim; anything else becomes an opaque 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrListingNotFound),
		errors.Is(err, services.ErrThreadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSelfMessage),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrListingMissingOwner),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrEmptyMessageBody),
		errors.Is(err, services.ErrPhotoLimitReached),
		services.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
	}
}
