package yield

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for negative or non-finite geometry
var ErrInvalidInput = errors.New("invalid yield input")

// Input describes the geometry of a planting and the species' yield figures.
type Input struct {
	RowCount        int     `json:"row_count"`
	RowSpacingCm    float64 `json:"row_spacing_cm"`
	LengthM         float64 `json:"length_m"`
	PlantSpacingCm  float64 `json:"plant_spacing_cm,omitempty"`
	YieldPerM2Kg    float64 `json:"yield_per_m2_kg,omitempty"`
	YieldPerPlantKg float64 `json:"yield_per_plant_kg,omitempty"`
}

// Estimate is the plant count and yield expected from a planting.
type Estimate struct {
	PlantsPerRow     int     `json:"plants_per_row"`
	PlantCount       int     `json:"plant_count"`
	SurfaceM2        float64 `json:"surface_m2"`
	EstimatedYieldKg float64 `json:"estimated_yield_kg"`
}

// SurfaceM2 returns the footprint of a planting. Every row owns one spacing band,
// so a single row still occupies rowSpacing x length.
func SurfaceM2(rowCount int, rowSpacingCm, lengthM float64) float64 {
	if rowCount <= 0 || rowSpacingCm <= 0 || lengthM <= 0 {
		return 0
	}
	return round(float64(rowCount)*rowSpacingCm/100*lengthM, 100)
}

// EstimateYield converts geometry into plant count and yield.
// Per-plant yield takes precedence over per-m2 yield when both are known.
func EstimateYield(in Input) (Estimate, error) {
	if err := in.validate(); err != nil {
		return Estimate{}, err
	}

	est := Estimate{SurfaceM2: SurfaceM2(in.RowCount, in.RowSpacingCm, in.LengthM)}

	if in.PlantSpacingCm > 0 && in.RowCount > 0 {
		// A row of length L holds a plant at 0 and every spacing after it
		est.PlantsPerRow = int(math.Floor(in.LengthM*100/in.PlantSpacingCm+1e-9)) + 1
		est.PlantCount = est.PlantsPerRow * in.RowCount
	}

	switch {
	case in.YieldPerPlantKg > 0 && est.PlantCount > 0:
		est.EstimatedYieldKg = round(float64(est.PlantCount)*in.YieldPerPlantKg, 100)
	case in.YieldPerM2Kg > 0:
		est.EstimatedYieldKg = round(est.SurfaceM2*in.YieldPerM2Kg, 100)
	}

	return est, nil
}

func (in Input) validate() error {
	if in.RowCount < 0 {
		return fmt.Errorf("%w: row count %d", ErrInvalidInput, in.RowCount)
	}
	values := []struct {
		name string
		v    float64
	}{
		{"row spacing", in.RowSpacingCm},
		{"length", in.LengthM},
		{"plant spacing", in.PlantSpacingCm},
		{"yield per m2", in.YieldPerM2Kg},
		{"yield per plant", in.YieldPerPlantKg},
	}
	for _, f := range values {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s %v", ErrInvalidInput, f.name, f.v)
		}
	}
	return nil
}

func round(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}
