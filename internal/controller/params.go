package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cultivation-planner/internal/capacity"
	"cultivation-planner/internal/repository"
	"cultivation-planner/internal/scheduler"
	"cultivation-planner/internal/service"
	"cultivation-planner/internal/triage"
	"cultivation-planner/internal/yield"

	"github.com/gin-gonic/gin"
)

// parseID reads a positive unsigned path parameter
func parseID(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return uint(id), nil
}

// queryInt reads an optional integer query parameter
func queryInt(ctx *gin.Context, name string, def int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

// parseISO8601Date parses a date string in ISO 8601 format (RFC3339 is ISO 8601 compliant)
// Supports:
//   - RFC3339 (e.g., "2006-01-02T15:04:05Z07:00")
//   - RFC3339Nano (e.g., "2006-01-02T15:04:05.999999999Z07:00")
//   - YYYY-MM-DD (e.g., "2006-01-02"), read as midnight UTC
//   - YYYY-MM-DDTHH:MM:SS (e.g., "2006-01-02T15:04:05"), read as UTC
func parseISO8601Date(dateStr string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, time.DateOnly, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse ISO 8601 date: %s (expected RFC3339 or YYYY-MM-DD format)", dateStr)
}

// badRequest answers 400 in the common error shape
func badRequest(ctx *gin.Context, title string, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"error":   title,
		"message": err.Error(),
	})
}

// statusFor maps service and engine errors to an HTTP status and a short title
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, repository.ErrCapacityConflict):
		return http.StatusConflict, "Capacity conflict"
	case errors.Is(err, repository.ErrAlreadyRetired),
		errors.Is(err, service.ErrPlantingRetired):
		return http.StatusConflict, "Planting retired"
	case errors.Is(err, service.ErrInfeasible):
		return http.StatusUnprocessableEntity, "Planting does not fit"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, "Capacity validation unavailable"
	case errors.Is(err, scheduler.ErrShiftOutOfRange),
		errors.Is(err, scheduler.ErrInvalidPlan),
		errors.Is(err, capacity.ErrInvalidGeometry),
		errors.Is(err, yield.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, triage.ErrUnknownGroupKey),
		errors.Is(err, triage.ErrEmptyChangeSet),
		errors.Is(err, triage.ErrInvalidTimestamp),
		errors.Is(err, triage.ErrInvalidWindow):
		return http.StatusBadRequest, "Invalid request"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// respondError writes err in the common error shape. Server errors hide their detail.
func respondError(ctx *gin.Context, err error) int {
	status, title := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "The request could not be completed"
		_ = ctx.Error(err)
	}
	ctx.JSON(status, gin.H{
		"error":   title,
		"message": message,
	})
	return status
}
