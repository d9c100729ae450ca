package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bin_monitoring/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid  = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid    = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLimitInvalid = "invalid 'limit'; use a non-negative integer"
	errEmptyReading = "empty reading body"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"

	manualDeviceID = "http"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      Reading history
// @Description  Newest first. Dates accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' covers the whole day.
// @Tags         readings
// @Produce      json
// @Param        id     path    int     true   "Bin ID"
// @Param        from   query   string  false  "Start of range"  example(2025-08-01)
// @Param        to     query   string  false  "End of range"    example(2025-08-31)
// @Param        limit  query   int     false  "Maximum rows (default 500)"
// @Success      200    {object}  map[string]interface{}  "count, readings"
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /api/bin/{id}/readings [get]
// @Security     BearerAuth
func (h *Handler) getReadings(c *gin.Context) {
	id, ok := binIDParam(c)
	if !ok {
		return
	}
	filter := service.ReadingFilter{BinID: id}

	if qs := c.Query("from"); qs != "" {
		from, err := parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
		filter.From = from
	}
	if qs := c.Query("to"); qs != "" {
		to, err := parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
		filter.To = to
	}
	if qs := c.Query("limit"); qs != "" {
		limit, err := strconv.Atoi(qs)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errLimitInvalid})
			return
		}
		filter.Limit = limit
	}

	readings, err := h.services.ListReadings(c.Request.Context(), filter)
	if err != nil {
		h.serviceError(c, "readings_list_failed", err, "bin_id", id, "from", filter.From, "to", filter.To)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(readings),
		"readings": readings,
	})
}

// @Summary      Inject a reading
// @Description  Runs the device pipeline on the body: {"binId":1,"fillLevel":85,"temperature":21.5} or a bare number.
// @Description  Without binId the http device mapping applies, then the most recently created bin when sensor.fallback_latest_bin is on (the default).
// @Tags         readings
// @Accept       json
// @Produce      json
// @Success      201  {object}  service.IngestResult
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/sensor/reading [post]
// @Security     BearerAuth
func (h *Handler) postReading(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyReading})
		return
	}
	res, err := h.services.Ingest(c.Request.Context(), manualDeviceID, raw)
	if err != nil {
		h.serviceError(c, "manual_reading_failed", err, "user_id", principal(c).UserID)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
