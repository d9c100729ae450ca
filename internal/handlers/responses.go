package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"bin_monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errForbidden       = "forbidden"
	errInvalidBinID    = "invalid bin id"
	errInvalidUserID   = "invalid user id"
	errInvalidBodyPref = "invalid body: "
	errStoreRetry      = "storage temporarily unavailable, retry later"
	errInternal        = "internal error"

	retryAfterSeconds = "1"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// serviceError maps service sentinels onto HTTP statuses. Only server-side failures are logged.
func (h *Handler) serviceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, service.ErrBinNotFound),
		errors.Is(err, service.ErrNoPendingRequest):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMalformedReading),
		errors.Is(err, service.ErrFillOutOfRange),
		errors.Is(err, service.ErrInvalidBin),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidTimeRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStore):
		c.Header("Retry-After", retryAfterSeconds)
		h.logAndJSONError(c, http.StatusServiceUnavailable, errStoreRetry, logKey, err, kv...)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
	}
}

// positiveParam parses a path parameter as a positive int64.
func positiveParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func binIDParam(c *gin.Context) (int64, bool) {
	id, ok := positiveParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBinID})
	}
	return id, ok
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
