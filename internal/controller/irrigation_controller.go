package controller

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cultivation-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// defaultScheduleDays is the projection window when "to" is omitted
const defaultScheduleDays = 14

// IrrigationController handles irrigation triage requests
type IrrigationController struct {
	irrigationService service.IrrigationService
	logger            *slog.Logger
}

// NewIrrigationController creates a new irrigation controller
func NewIrrigationController(irrigationService service.IrrigationService, logger *slog.Logger) *IrrigationController {
	return &IrrigationController{
		irrigationService: irrigationService,
		logger:            logger,
	}
}

// GetPlantingIrrigation handles GET /v1/plantings/{planting_id}/irrigation
func (c *IrrigationController) GetPlantingIrrigation(ctx *gin.Context) {
	plantingID, err := parseID(ctx, "planting_id")
	if err != nil {
		c.logger.Warn("invalid planting_id", "error", err.Error())
		badRequest(ctx, "Invalid planting_id", err)
		return
	}

	classification, err := c.irrigationService.ClassifyPlanting(plantingID, time.Now())
	if err != nil {
		status := respondError(ctx, err)
		c.logger.Warn("failed to classify planting", "planting_id", plantingID, "status_code", status, "error", err.Error())
		return
	}

	ctx.JSON(http.StatusOK, classification)
}

// GetSummary handles GET /v1/irrigation/summary
// Query parameters:
//   - group (optional): bed, irrigation_type or urgency_tier (default: bed)
func (c *IrrigationController) GetSummary(ctx *gin.Context) {
	startTime := time.Now()
	group := ctx.Query("group")

	summary, err := c.irrigationService.Summary(group, time.Now())
	if err != nil {
		status := respondError(ctx, err)
		c.logger.Warn("failed to build irrigation summary",
			"group", group,
			"status_code", status,
			"error", err.Error(),
			"latency_ms", time.Since(startTime).Milliseconds(),
		)
		return
	}

	c.logger.Info("irrigation summary built",
		"group", summary.GroupKey,
		"groups", len(summary.Groups),
		"plantings", summary.Totals.Plantings,
		"never_watered", summary.Totals.NeverWatered,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, summary)
}

// wateredRequest is the body of POST /v1/irrigation/watered
type wateredRequest struct {
	PlantingIDs []uint `json:"planting_ids" binding:"required"`
	WateredAt   string `json:"watered_at"`
}

// MarkWatered handles POST /v1/irrigation/watered
// Body: {"planting_ids": [1, 2], "watered_at": "2025-06-15T08:00:00Z"}; watered_at defaults to now.
func (c *IrrigationController) MarkWatered(ctx *gin.Context) {
	var req wateredRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn("invalid watering request", "error", err.Error())
		badRequest(ctx, "Invalid request body", err)
		return
	}

	at := time.Now()
	if req.WateredAt != "" {
		var err error
		if at, err = parseISO8601Date(req.WateredAt); err != nil {
			badRequest(ctx, "Invalid watered_at", err)
			return
		}
	}

	cs, err := c.irrigationService.MarkWatered(req.PlantingIDs, at)
	if err != nil {
		status := respondError(ctx, err)
		c.logger.Warn("failed to mark plantings watered",
			"planting_ids", req.PlantingIDs,
			"status_code", status,
			"error", err.Error(),
		)
		return
	}

	c.logger.Info("plantings watered",
		"change_set", cs.ID.String(),
		"plantings", len(cs.PlantingIDs),
		"watered_at", cs.WateredAt.Format(time.RFC3339),
	)
	ctx.JSON(http.StatusOK, cs)
}

// ScheduleIrrigation handles POST /v1/plantings/{planting_id}/irrigation/schedule
// Query parameters:
//   - from (optional): window start, ISO 8601 (default: today)
//   - to (optional): window end, ISO 8601 (default: from + 14 days)
func (c *IrrigationController) ScheduleIrrigation(ctx *gin.Context) {
	plantingID, err := parseID(ctx, "planting_id")
	if err != nil {
		c.logger.Warn("invalid planting_id", "error", err.Error())
		badRequest(ctx, "Invalid planting_id", err)
		return
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if raw := ctx.Query("from"); raw != "" {
		if from, err = parseISO8601Date(raw); err != nil {
			badRequest(ctx, "Invalid from", err)
			return
		}
	}
	to := from.AddDate(0, 0, defaultScheduleDays)
	if raw := ctx.Query("to"); raw != "" {
		if to, err = parseISO8601Date(raw); err != nil {
			badRequest(ctx, "Invalid to", err)
			return
		}
	}
	if to.Before(from) {
		badRequest(ctx, "Invalid date range", fmt.Errorf("to must not be before from"))
		return
	}

	events, err := c.irrigationService.ScheduleIrrigation(plantingID, from, to)
	if err != nil {
		status := respondError(ctx, err)
		c.logger.Warn("failed to schedule irrigation", "planting_id", plantingID, "status_code", status, "error", err.Error())
		return
	}

	c.logger.Info("irrigation scheduled",
		"planting_id", plantingID,
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
		"events", len(events),
	)
	ctx.JSON(http.StatusCreated, gin.H{
		"planting_id": plantingID,
		"events":      events,
	})
}
