package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"cultivation-planner/internal/middleware"
	"cultivation-planner/internal/model"
	"cultivation-planner/internal/repository"
	"cultivation-planner/internal/service"
	"cultivation-planner/internal/triage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlantingIrrigation(t *testing.T) {
	mockService := &mockIrrigationService{
		classification: &triage.Classification{PlantingID: 3, BedID: 1, Tier: triage.TierNever},
	}
	router := setupRouter(&mockPlanningService{}, mockService)

	w := doRequest(router, "GET", "/v1/plantings/3/irrigation", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got triage.Classification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, triage.TierNever, got.Tier)
	assert.Nil(t, got.DaysSinceWatered)

	retired := setupRouter(&mockPlanningService{}, &mockIrrigationService{err: fmt.Errorf("%w: 3", service.ErrPlantingRetired)})
	w = doRequest(retired, "GET", "/v1/plantings/3/irrigation", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetSummary(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		summary        *triage.Summary
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "default grouping",
			summary:        &triage.Summary{GroupKey: triage.GroupByBed, Groups: []triage.GroupSummary{{Key: "1", Plantings: 2}}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "grouped by irrigation type",
			query:          "?group=irrigation_type",
			summary:        &triage.Summary{GroupKey: triage.GroupByIrrigationType},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown group",
			query:          "?group=colour",
			serviceErr:     fmt.Errorf("%w: %q", triage.ErrUnknownGroupKey, "colour"),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockIrrigationService{summary: tt.summary, err: tt.serviceErr}
			router := setupRouter(&mockPlanningService{}, mockService)

			w := doRequest(router, "GET", "/v1/irrigation/summary"+tt.query, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.query != "" {
				assert.Equal(t, tt.query[len("?group="):], mockService.gotGroup)
			}
		})
	}
}

func TestMarkWatered(t *testing.T) {
	at := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	cs := &triage.ChangeSet{ID: uuid.New(), WateredAt: at, PlantingIDs: []uint{1, 2}}

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedIDs    []uint
	}{
		{
			name:           "bulk",
			body:           `{"planting_ids": [1, 2], "watered_at": "2025-06-15T08:00:00Z"}`,
			expectedStatus: http.StatusOK,
			expectedIDs:    []uint{1, 2},
		},
		{
			name:           "missing ids",
			body:           `{"watered_at": "2025-06-15T08:00:00Z"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad timestamp",
			body:           `{"planting_ids": [1], "watered_at": "yesterday"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown planting aborts the batch",
			body:           `{"planting_ids": [1, 99], "watered_at": "2025-06-15"}`,
			serviceErr:     fmt.Errorf("%w: planting 99", repository.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			expectedIDs:    []uint{1, 99},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &mockIrrigationService{changeSet: cs, err: tt.serviceErr}
			router := setupRouter(&mockPlanningService{}, mockService)

			w := doRequest(router, "POST", "/v1/irrigation/watered", tt.body)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.expectedIDs, mockService.gotIDs)
		})
	}
}

func TestScheduleIrrigation(t *testing.T) {
	from := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	events := []model.IrrigationEvent{
		{PlantingID: 4, PlannedDate: from.AddDate(0, 0, 2)},
		{PlantingID: 4, PlannedDate: from.AddDate(0, 0, 4)},
	}

	t.Run("explicit window", func(t *testing.T) {
		mockService := &mockIrrigationService{events: events}
		router := setupRouter(&mockPlanningService{}, mockService)

		w := doRequest(router, "POST", "/v1/plantings/4/irrigation/schedule?from=2025-06-10&to=2025-06-20", "")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, mockService.gotFrom.Equal(from))
		assert.True(t, mockService.gotTo.Equal(from.AddDate(0, 0, 10)))

		var body struct {
			PlantingID uint                    `json:"planting_id"`
			Events     []model.IrrigationEvent `json:"events"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, uint(4), body.PlantingID)
		assert.Len(t, body.Events, 2)
	})

	t.Run("default window is two weeks", func(t *testing.T) {
		mockService := &mockIrrigationService{}
		router := setupRouter(&mockPlanningService{}, mockService)

		w := doRequest(router, "POST", "/v1/plantings/4/irrigation/schedule?from=2025-06-10", "")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 14*24*time.Hour, mockService.gotTo.Sub(mockService.gotFrom))
	})

	t.Run("reversed window", func(t *testing.T) {
		router := setupRouter(&mockPlanningService{}, &mockIrrigationService{})
		w := doRequest(router, "POST", "/v1/plantings/4/irrigation/schedule?from=2025-06-20&to=2025-06-10", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("retired planting", func(t *testing.T) {
		router := setupRouter(&mockPlanningService{}, &mockIrrigationService{err: service.ErrPlantingRetired})
		w := doRequest(router, "POST", "/v1/plantings/4/irrigation/schedule", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		health         HealthCheck
		expectedStatus int
	}{
		{name: "no check", expectedStatus: http.StatusOK},
		{name: "healthy", health: func() error { return nil }, expectedStatus: http.StatusOK},
		{name: "database down", health: func() error { return errors.New("dial tcp: refused") }, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := discardLogger()
			router := NewRouter(logger, middleware.NewRequestMetrics(), tt.health,
				NewPlanningController(&mockPlanningService{}, logger),
				NewIrrigationController(&mockIrrigationService{}, logger))

			w := doRequest(router, "GET", "/healthz", "")
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	router := setupRouter(&mockPlanningService{err: repository.ErrNotFound}, &mockIrrigationService{})
	doRequest(router, "GET", "/v1/plans/5/dates", "")
	w := doRequest(router, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	byEndpoint, ok := snapshot["requests_by_endpoint"].(map[string]interface{})
	require.True(t, ok, "missing requests_by_endpoint in %v", snapshot)
	assert.EqualValues(t, 1, byEndpoint["GET /v1/plans/:plan_id/dates"])
}
