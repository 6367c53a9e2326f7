package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cultivation-planner/internal/controller"
	"cultivation-planner/internal/middleware"
	"cultivation-planner/internal/repository"
	"cultivation-planner/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serve(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	defer sqlDB.Close()

	repo := repository.NewPlanningRepository(db)
	planning := controller.NewPlanningController(service.NewPlanningService(repo, cfg.Engine.BedMarginM), logger)
	irrigation := controller.NewIrrigationController(service.NewIrrigationService(repo, cfg.Engine.Irrigation), logger)

	gin.SetMode(gin.ReleaseMode)
	router := controller.NewRouter(logger, middleware.NewRequestMetrics(), sqlDB.Ping, planning, irrigation)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func seed(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}

	summary, err := repository.NewSeedRepository(db, seedValue).SeedDatabase(time.Now())
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}
	logger.Info("database seeded",
		"species", summary.Species,
		"plans", summary.Plans,
		"beds", summary.Beds,
		"plantings", summary.Plantings,
		"events", summary.Events,
		"seed", seedValue,
	)
	return nil
}
