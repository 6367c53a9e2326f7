package service

import (
	"cultivation-planner/internal/capacity"
	"cultivation-planner/internal/model"
	"cultivation-planner/internal/scheduler"
	"cultivation-planner/internal/triage"
	"cultivation-planner/internal/yield"
)

func schedulerPlan(cp model.CultivationPlan) scheduler.Plan {
	return scheduler.Plan{
		SowWeek:              cp.SowWeek,
		TransplantWeek:       cp.TransplantWeek,
		HarvestWeek:          cp.HarvestWeek,
		HarvestDurationWeeks: cp.HarvestDurationWeeks,
		NurseryDurationDays:  cp.NurseryDurationDays,
		TotalDurationDays:    cp.TotalDurationDays,
		RowCountDefault:      cp.RowCountDefault,
		RowSpacingDefaultCm:  cp.RowSpacingDefaultCm,
		MaxWeekShift:         cp.MaxWeekShift,
	}
}

func capacityBed(b model.Bed) capacity.Bed {
	return capacity.Bed{ID: b.ID, WidthM: b.WidthM, LengthM: b.LengthM}
}

func capacityPlantings(plantings []model.Planting) []capacity.Planting {
	out := make([]capacity.Planting, 0, len(plantings))
	for _, p := range plantings {
		out = append(out, capacity.Planting{
			ID:           p.ID,
			RowCount:     p.RowCount,
			RowSpacingCm: p.RowSpacingCm,
			LengthM:      p.LengthM,
		})
	}
	return out
}

func yieldInput(rows int, spacingCm, lengthM float64, s model.Species) yield.Input {
	return yield.Input{
		RowCount:        rows,
		RowSpacingCm:    spacingCm,
		LengthM:         lengthM,
		PlantSpacingCm:  s.PlantSpacingCm,
		YieldPerM2Kg:    s.YieldPerM2Kg,
		YieldPerPlantKg: s.YieldPerPlantKg,
	}
}

// triageSubject expects the planting's bed and plan species to be loaded
func triageSubject(p model.Planting, events []model.IrrigationEvent) triage.Subject {
	return triage.Subject{
		PlantingID:     p.ID,
		BedID:          p.BedID,
		PlantingDate:   p.PlantingDate,
		LastWateredAt:  p.LastWateredAt,
		WaterNeedLevel: p.CultivationPlan.Species.WaterNeedLevel,
		IrrigationType: p.Bed.IrrigationType,
		SurfaceM2:      yield.SurfaceM2(p.RowCount, p.RowSpacingCm, p.LengthM),
		Events:         triageEvents(events),
	}
}

func triageEvents(events []model.IrrigationEvent) []triage.Event {
	out := make([]triage.Event, 0, len(events))
	for _, e := range events {
		out = append(out, triage.Event{
			ID:          e.ID,
			PlantingID:  e.PlantingID,
			PlannedDate: e.PlannedDate,
			ActualDate:  e.ActualDate,
			Done:        e.Done,
		})
	}
	return out
}

func modelEvents(events []triage.Event) []model.IrrigationEvent {
	out := make([]model.IrrigationEvent, 0, len(events))
	for _, e := range events {
		out = append(out, model.IrrigationEvent{
			PlantingID:  e.PlantingID,
			PlannedDate: e.PlannedDate,
			ActualDate:  e.ActualDate,
			Done:        e.Done,
		})
	}
	return out
}
