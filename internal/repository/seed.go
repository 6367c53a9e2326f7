package repository

import (
	"fmt"
	"math/rand"
	"time"

	"cultivation-planner/internal/model"

	"gorm.io/gorm"
)

// SeedSummary reports what SeedDatabase created
type SeedSummary struct {
	Species   int
	Plans     int
	Beds      int
	Plantings int
	Events    int
}

// SeedRepository handles database seeding operations
type SeedRepository struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeedRepository creates a new seed repository. The same seed always yields the same data.
func NewSeedRepository(db *gorm.DB, seed int64) *SeedRepository {
	return &SeedRepository{db: db, rng: rand.New(rand.NewSource(seed))}
}

// SeedDatabase replaces the content of every table with a demo garden around now:
// a few beds, species with and without a known water need, and plantings in
// every watering state.
func (s *SeedRepository) SeedDatabase(now time.Time) (SeedSummary, error) {
	var summary SeedSummary

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := clearExistingData(tx); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}

		species, err := createSpecies(tx)
		if err != nil {
			return fmt.Errorf("failed to create species: %w", err)
		}

		plans, err := createPlans(tx, species)
		if err != nil {
			return fmt.Errorf("failed to create cultivation plans: %w", err)
		}

		beds, err := createBeds(tx)
		if err != nil {
			return fmt.Errorf("failed to create beds: %w", err)
		}

		plantings, err := s.createPlantings(tx, beds, plans, now)
		if err != nil {
			return fmt.Errorf("failed to create plantings: %w", err)
		}

		events, err := s.createEvents(tx, plantings, now)
		if err != nil {
			return fmt.Errorf("failed to create irrigation events: %w", err)
		}

		summary = SeedSummary{
			Species:   len(species),
			Plans:     len(plans),
			Beds:      len(beds),
			Plantings: len(plantings),
			Events:    events,
		}
		return nil
	})
	return summary, err
}

// clearExistingData removes existing rows, children first. DELETE instead of TRUNCATE
// keeps this working on sqlite.
func clearExistingData(tx *gorm.DB) error {
	for _, m := range []interface{}{&model.IrrigationEvent{}, &model.Planting{}, &model.Bed{}, &model.CultivationPlan{}, &model.Species{}} {
		// a fresh chain per model; a reused statement keeps the first table
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

func createSpecies(tx *gorm.DB) ([]model.Species, error) {
	level := func(v int) *int { return &v }
	cm := func(v float64) *float64 { return &v }

	species := []model.Species{
		{Name: "Lettuce", WaterNeedLevel: level(3), PlantSpacingCm: 30, MinRowSpacingCm: cm(25), YieldPerPlantKg: 0.3},
		{Name: "Tomato", WaterNeedLevel: level(4), PlantSpacingCm: 50, MinRowSpacingCm: cm(60), YieldPerPlantKg: 3.5},
		{Name: "Carrot", WaterNeedLevel: level(2), PlantSpacingCm: 5, MinRowSpacingCm: cm(20), YieldPerM2Kg: 4},
		{Name: "Garlic", WaterNeedLevel: level(1), PlantSpacingCm: 15, MinRowSpacingCm: cm(20), YieldPerPlantKg: 0.05},
		// no known water need: triage reports it unclassified
		{Name: "Basil", PlantSpacingCm: 25, YieldPerM2Kg: 1.2},
	}

	if err := tx.Create(&species).Error; err != nil {
		return nil, err
	}
	return species, nil
}

func createPlans(tx *gorm.DB, species []model.Species) ([]model.CultivationPlan, error) {
	week := func(v int) *int { return &v }
	cm := func(v float64) *float64 { return &v }

	byName := make(map[string]uint, len(species))
	for _, s := range species {
		byName[s.Name] = s.ID
	}

	plans := []model.CultivationPlan{
		{SpeciesID: byName["Lettuce"], Name: "Spring lettuce", SowWeek: week(12), TransplantWeek: week(17), HarvestWeek: week(27),
			HarvestDurationWeeks: week(3), NurseryDurationDays: week(35), MaxWeekShift: 4, RowCountDefault: week(3), RowSpacingDefaultCm: cm(30)},
		{SpeciesID: byName["Tomato"], Name: "Greenhouse tomato", SowWeek: week(8), TransplantWeek: week(16), HarvestWeek: week(28),
			HarvestDurationWeeks: week(12), MaxWeekShift: 2, RowCountDefault: week(2), RowSpacingDefaultCm: cm(80)},
		{SpeciesID: byName["Carrot"], Name: "Direct-sown carrot", SowWeek: week(14), HarvestWeek: week(30),
			HarvestDurationWeeks: week(6), MaxWeekShift: 6, RowCountDefault: week(4), RowSpacingDefaultCm: cm(25)},
		{SpeciesID: byName["Garlic"], Name: "Overwintering garlic", SowWeek: week(44), HarvestWeek: week(28),
			MaxWeekShift: 3, RowCountDefault: week(4), RowSpacingDefaultCm: cm(20)},
		{SpeciesID: byName["Basil"], Name: "Basil", TransplantWeek: week(20), HarvestWeek: week(26),
			HarvestDurationWeeks: week(10), RowCountDefault: week(2), RowSpacingDefaultCm: cm(30)},
	}

	if err := tx.Create(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func createBeds(tx *gorm.DB) ([]model.Bed, error) {
	beds := []model.Bed{
		{Name: "Bed A1", WidthM: 1.2, LengthM: 10, IrrigationType: "drip"},
		{Name: "Bed A2", WidthM: 1.2, LengthM: 10, IrrigationType: "drip"},
		{Name: "Bed B1", WidthM: 1.5, LengthM: 20, IrrigationType: "sprinkler"},
		{Name: "Greenhouse G1", WidthM: 2, LengthM: 15, IrrigationType: "drip"},
		{Name: "Bed C1", WidthM: 0.8, LengthM: 6},
	}

	if err := tx.Create(&beds).Error; err != nil {
		return nil, err
	}
	return beds, nil
}

// createPlantings places one or two plans per bed, always within capacity
func (s *SeedRepository) createPlantings(tx *gorm.DB, beds []model.Bed, plans []model.CultivationPlan, now time.Time) ([]model.Planting, error) {
	placements := []struct {
		bed, plan int
		rows      int
		lengthM   float64
	}{
		{bed: 0, plan: 0, rows: 3, lengthM: 10},
		{bed: 0, plan: 4, rows: 2, lengthM: 4},
		{bed: 1, plan: 2, rows: 4, lengthM: 10},
		{bed: 2, plan: 3, rows: 4, lengthM: 20},
		{bed: 2, plan: 0, rows: 2, lengthM: 12},
		{bed: 3, plan: 1, rows: 2, lengthM: 15},
		{bed: 4, plan: 4, rows: 2, lengthM: 6},
	}

	plantings := make([]model.Planting, 0, len(placements))
	for i, pl := range placements {
		p := model.Planting{
			BedID:             beds[pl.bed].ID,
			CultivationPlanID: plans[pl.plan].ID,
			RowCount:          pl.rows,
			LengthM:           pl.lengthM,
			PlantingDate:      now.AddDate(0, 0, -(14 + s.rng.Intn(60))).Truncate(24 * time.Hour),
		}
		// every third planting has never been watered
		if i%3 != 1 {
			watered := now.Add(-time.Duration(s.rng.Intn(12*24)) * time.Hour)
			p.LastWateredAt = &watered
		}
		plantings = append(plantings, p)
	}

	if err := tx.Create(&plantings).Error; err != nil {
		return nil, err
	}
	return plantings, nil
}

// createEvents plans a few irrigations around now for every planting
func (s *SeedRepository) createEvents(tx *gorm.DB, plantings []model.Planting, now time.Time) (int, error) {
	today := now.Truncate(24 * time.Hour)
	var events []model.IrrigationEvent

	for _, p := range plantings {
		for d := -6; d <= 10; d += 2 + s.rng.Intn(3) {
			ev := model.IrrigationEvent{PlantingID: p.ID, PlannedDate: today.AddDate(0, 0, d)}
			if d < 0 && p.LastWateredAt != nil && !ev.PlannedDate.After(*p.LastWateredAt) {
				actual := ev.PlannedDate.Add(8 * time.Hour)
				ev.Done = true
				ev.ActualDate = &actual
			}
			events = append(events, ev)
		}
	}

	if len(events) == 0 {
		return 0, nil
	}
	if err := tx.CreateInBatches(&events, 100).Error; err != nil {
		return 0, err
	}
	return len(events), nil
}
