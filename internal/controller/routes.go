package controller

import (
	"log/slog"
	"net/http"

	"cultivation-planner/internal/middleware"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func() error

// NewRouter wires middleware and every route
func NewRouter(logger *slog.Logger, metrics *middleware.RequestMetrics, health HealthCheck,
	planning *PlanningController, irrigation *IrrigationController) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.StructuredLoggingMiddleware(logger, metrics))

	r.GET("/metrics", middleware.MetricsHandler(metrics))
	r.GET("/healthz", func(ctx *gin.Context) {
		if health != nil {
			if err := health(); err != nil {
				logger.Error("health check failed", "error", err.Error())
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		v1.GET("/plans/:plan_id/dates", planning.GetPlanDates)

		beds := v1.Group("/beds")
		{
			beds.POST("/:bed_id/capacity", planning.CheckCapacity)
			beds.POST("/:bed_id/plantings", planning.CreatePlanting)
		}

		plantings := v1.Group("/plantings")
		{
			plantings.POST("/:planting_id/retire", planning.RetirePlanting)
			plantings.GET("/:planting_id/irrigation", irrigation.GetPlantingIrrigation)
			plantings.POST("/:planting_id/irrigation/schedule", irrigation.ScheduleIrrigation)
		}

		v1.GET("/irrigation/summary", irrigation.GetSummary)
		v1.POST("/irrigation/watered", irrigation.MarkWatered)
	}

	return r
}
