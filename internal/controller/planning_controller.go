package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cultivation-planner/internal/repository"
	"cultivation-planner/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanningController handles scheduling, capacity and planting requests
type PlanningController struct {
	planningService service.PlanningService
	logger          *slog.Logger
}

// NewPlanningController creates a new planning controller
func NewPlanningController(planningService service.PlanningService, logger *slog.Logger) *PlanningController {
	return &PlanningController{
		planningService: planningService,
		logger:          logger,
	}
}

// GetPlanDates handles GET /v1/plans/{plan_id}/dates
// Query parameters:
//   - year (optional): planning year (default: current year)
//   - shift (optional): week shift within the plan's bounds (default: 0)
func (c *PlanningController) GetPlanDates(ctx *gin.Context) {
	startTime := time.Now()
	planID, err := parseID(ctx, "plan_id")
	if err != nil {
		c.logger.Warn("invalid plan_id", "error", err.Error())
		badRequest(ctx, "Invalid plan_id", err)
		return
	}

	year, err := queryInt(ctx, "year", time.Now().Year())
	if err != nil {
		badRequest(ctx, "Invalid year", err)
		return
	}
	shift, err := queryInt(ctx, "shift", 0)
	if err != nil {
		badRequest(ctx, "Invalid shift", err)
		return
	}

	resp, err := c.planningService.ScheduleDates(planID, year, shift)
	if err != nil {
		status := respondError(ctx, err)
		c.logger.Warn("failed to schedule plan",
			"plan_id", planID,
			"year", year,
			"shift", shift,
			"status_code", status,
			"error", err.Error(),
			"latency_ms", time.Since(startTime).Milliseconds(),
		)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// CheckCapacity handles POST /v1/beds/{bed_id}/capacity
// Answers 200 with the check, or 503 when the bed's state could not be loaded.
func (c *PlanningController) CheckCapacity(ctx *gin.Context) {
	startTime := time.Now()
	bedID, err := parseID(ctx, "bed_id")
	if err != nil {
		c.logger.Warn("invalid bed_id", "error", err.Error())
		badRequest(ctx, "Invalid bed_id", err)
		return
	}

	var req service.CapacityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn("invalid capacity request", "bed_id", bedID, "error", err.Error())
		badRequest(ctx, "Invalid request body", err)
		return
	}

	check, err := c.planningService.CheckCapacity(bedID, req)
	if err != nil {
		status := respondError(ctx, err)
		c.logger.Warn("capacity check failed",
			"bed_id", bedID,
			"status_code", status,
			"error", err.Error(),
		)
		return
	}

	if check.Status == service.StatusUnavailable {
		c.logger.Error("capacity validation unavailable",
			"bed_id", bedID,
			"reason", check.Reason,
			"latency_ms", time.Since(startTime).Milliseconds(),
		)
		ctx.JSON(http.StatusServiceUnavailable, check)
		return
	}

	c.logger.Info("capacity checked",
		"bed_id", bedID,
		"possible", check.Result.Possible,
		"suggestions", len(check.Suggestions),
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, check)
}

// CreatePlanting handles POST /v1/beds/{bed_id}/plantings
// Answers 201, 422 with the failed check, or 409 when the bed filled up meanwhile.
func (c *PlanningController) CreatePlanting(ctx *gin.Context) {
	startTime := time.Now()
	bedID, err := parseID(ctx, "bed_id")
	if err != nil {
		c.logger.Warn("invalid bed_id", "error", err.Error())
		badRequest(ctx, "Invalid bed_id", err)
		return
	}

	var req service.PlantingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn("invalid planting request", "bed_id", bedID, "error", err.Error())
		badRequest(ctx, "Invalid request body", err)
		return
	}

	planting, err := c.planningService.CreatePlanting(bedID, req)
	if err != nil {
		c.logger.Warn("planting rejected",
			"bed_id", bedID,
			"plan_id", req.PlanID,
			"error", err.Error(),
			"latency_ms", time.Since(startTime).Milliseconds(),
		)

		var infeasible *service.InfeasibleError
		if errors.As(err, &infeasible) {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":       "Planting does not fit",
				"message":     err.Error(),
				"result":      infeasible.Check.Result,
				"suggestions": infeasible.Check.Suggestions,
			})
			return
		}
		var conflict *repository.CapacityConflictError
		if errors.As(err, &conflict) {
			ctx.JSON(http.StatusConflict, gin.H{
				"error":   "Capacity conflict",
				"message": err.Error(),
				"result":  conflict.Result,
			})
			return
		}
		respondError(ctx, err)
		return
	}

	c.logger.Info("planting created",
		"bed_id", bedID,
		"planting_id", planting.ID,
		"plan_id", planting.CultivationPlanID,
		"rows", planting.RowCount,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusCreated, planting)
}

// RetirePlanting handles POST /v1/plantings/{planting_id}/retire
// Optional body: {"finished_at": "2025-09-30"}; defaults to now.
func (c *PlanningController) RetirePlanting(ctx *gin.Context) {
	plantingID, err := parseID(ctx, "planting_id")
	if err != nil {
		c.logger.Warn("invalid planting_id", "error", err.Error())
		badRequest(ctx, "Invalid planting_id", err)
		return
	}

	var body struct {
		FinishedAt string `json:"finished_at"`
	}
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&body); err != nil {
			badRequest(ctx, "Invalid request body", err)
			return
		}
	}
	at := time.Now()
	if body.FinishedAt != "" {
		if at, err = parseISO8601Date(body.FinishedAt); err != nil {
			badRequest(ctx, "Invalid finished_at", err)
			return
		}
	}

	if err := c.planningService.RetirePlanting(plantingID, at); err != nil {
		status := respondError(ctx, err)
		c.logger.Warn("failed to retire planting", "planting_id", plantingID, "status_code", status, "error", err.Error())
		return
	}

	c.logger.Info("planting retired", "planting_id", plantingID, "finished_at", at.Format(time.RFC3339))
	ctx.JSON(http.StatusOK, gin.H{
		"planting_id": plantingID,
		"finished_at": at,
	})
}
