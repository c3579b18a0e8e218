// Package web holds the HTTP plumbing shared by the service handlers:
// request ids, request logging and the JSON error envelope.
package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
)

// StatusFor maps a domain error kind to an HTTP status
func StatusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindValidation, models.KindInvalidQuantity, models.KindEmptyCart:
		return http.StatusBadRequest
	case models.KindUnavailable, models.KindConflict, models.KindInvalidTransition:
		return http.StatusConflict
	case models.KindPermissionDenied, models.KindNoRestaurant:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes the error envelope for err. Errors without a domain
// kind are logged and reported as a generic internal error.
func WriteError(c *gin.Context, log *logger.Logger, action string, err error) {
	requestID := RequestID(c)
	kind := models.KindOf(err)
	status := StatusFor(kind)

	message := err.Error()
	var de *models.Error
	if errors.As(err, &de) {
		message = de.Error()
	}
	if status == http.StatusInternalServerError {
		log.Error(action, "Request failed", requestID, err, map[string]interface{}{
			"path": c.FullPath(),
		})
		message = "Internal server error"
		kind = "internal"
	} else {
		log.Debug(action, message, requestID, map[string]interface{}{
			"kind":   string(kind),
			"status": status,
		})
	}

	writeErrorResponse(c, status, message, string(kind))
}

// WriteStatus writes the error envelope for a transport-level failure
// such as a malformed body or a missing token
func WriteStatus(c *gin.Context, status int, message string) {
	kind := "validation_error"
	switch status {
	case http.StatusUnauthorized:
		kind = "unauthenticated"
	case http.StatusForbidden:
		kind = string(models.KindPermissionDenied)
	case http.StatusServiceUnavailable:
		kind = "unavailable"
	}
	writeErrorResponse(c, status, message, kind)
}

func writeErrorResponse(c *gin.Context, status int, message, kind string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      message,
		"kind":       kind,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": RequestID(c),
	})
}

// Pagination reads limit/offset query parameters. Malformed values fall
// back to the defaults.
func Pagination(c *gin.Context) models.Page {
	var p models.Page
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		p.Limit = v
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil {
		p.Offset = v
	}
	return p.Normalize()
}
