package service

import (
	"fmt"
	"sort"
	"time"

	"cultivation-planner/internal/model"
	"cultivation-planner/internal/repository"
	"cultivation-planner/internal/triage"
)

// fakeRepository is an in-memory PlanningRepository for service tests
type fakeRepository struct {
	beds      map[uint]model.Bed
	plans     map[uint]model.CultivationPlan
	plantings map[uint]*model.Planting
	events    []model.IrrigationEvent

	// bedErr and listErr simulate the bed state being unreachable
	bedErr    error
	listErr   error
	createErr error

	created  []model.Planting
	applied  []triage.ChangeSet
	appended []model.IrrigationEvent
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		beds:      map[uint]model.Bed{},
		plans:     map[uint]model.CultivationPlan{},
		plantings: map[uint]*model.Planting{},
	}
}

func (f *fakeRepository) GetBed(id uint) (*model.Bed, error) {
	if f.bedErr != nil {
		return nil, f.bedErr
	}
	b, ok := f.beds[id]
	if !ok {
		return nil, fmt.Errorf("%w: bed %d", repository.ErrNotFound, id)
	}
	return &b, nil
}

func (f *fakeRepository) ListActivePlantings(bedID uint) ([]model.Planting, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Planting
	for _, id := range f.plantingIDs() {
		p := f.plantings[id]
		if p.BedID == bedID && p.Active() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetPlanting(id uint) (*model.Planting, error) {
	p, ok := f.plantings[id]
	if !ok {
		return nil, fmt.Errorf("%w: planting %d", repository.ErrNotFound, id)
	}
	out := *p
	out.Bed = f.beds[p.BedID]
	out.CultivationPlan = f.plans[p.CultivationPlanID]
	return &out, nil
}

func (f *fakeRepository) GetCultivationPlan(id uint) (*model.CultivationPlan, error) {
	cp, ok := f.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: cultivation plan %d", repository.ErrNotFound, id)
	}
	return &cp, nil
}

func (f *fakeRepository) GetSpecies(id uint) (*model.Species, error) {
	for _, cp := range f.plans {
		if cp.Species.ID == id {
			s := cp.Species
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: species %d", repository.ErrNotFound, id)
}

func (f *fakeRepository) ListIrrigationEvents(filter repository.EventFilter) ([]model.IrrigationEvent, error) {
	var out []model.IrrigationEvent
	for _, e := range f.events {
		if filter.PlantingID != nil && e.PlantingID != *filter.PlantingID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeRepository) ListActivePlantingsDetailed() ([]model.Planting, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.Planting
	for _, id := range f.plantingIDs() {
		if !f.plantings[id].Active() {
			continue
		}
		p, _ := f.GetPlanting(id)
		p.IrrigationEvents, _ = f.ListIrrigationEvents(repository.EventFilter{PlantingID: &p.ID})
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepository) CreatePlanting(p *model.Planting, marginM float64) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = uint(len(f.plantings) + 100)
	f.plantings[p.ID] = p
	f.created = append(f.created, *p)
	return nil
}

func (f *fakeRepository) RetirePlanting(id uint, at time.Time) error {
	p, ok := f.plantings[id]
	if !ok {
		return fmt.Errorf("%w: planting %d", repository.ErrNotFound, id)
	}
	p.FinishedAt = &at
	return nil
}

func (f *fakeRepository) ApplyWatering(cs triage.ChangeSet) error {
	for _, u := range cs.Updates {
		if _, ok := f.plantings[u.PlantingID]; !ok {
			return fmt.Errorf("%w: planting %d", repository.ErrNotFound, u.PlantingID)
		}
	}
	for _, u := range cs.Updates {
		at := u.LastWateredAt
		f.plantings[u.PlantingID].LastWateredAt = &at
	}
	f.applied = append(f.applied, cs)
	return nil
}

func (f *fakeRepository) AppendIrrigationEvents(events []model.IrrigationEvent) error {
	for i := range events {
		events[i].ID = uint(len(f.events) + 1)
		f.events = append(f.events, events[i])
	}
	f.appended = append(f.appended, events...)
	return nil
}

func (f *fakeRepository) plantingIDs() []uint {
	ids := make([]uint, 0, len(f.plantings))
	for id := range f.plantings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func uintPtr(v uint) *uint { return &v }

// lettucePlan mirrors the spring lettuce plan: weeks 12, 17 and 27
func lettucePlan() model.CultivationPlan {
	return model.CultivationPlan{
		ID:                   1,
		SpeciesID:            10,
		Name:                 "Spring lettuce",
		SowWeek:              intPtr(12),
		TransplantWeek:       intPtr(17),
		HarvestWeek:          intPtr(27),
		HarvestDurationWeeks: intPtr(3),
		MaxWeekShift:         4,
		RowCountDefault:      intPtr(3),
		RowSpacingDefaultCm:  floatPtr(30),
		Species: model.Species{
			ID:              10,
			Name:            "Lettuce",
			WaterNeedLevel:  intPtr(3),
			PlantSpacingCm:  30,
			MinRowSpacingCm: floatPtr(25),
			YieldPerPlantKg: 0.3,
		},
	}
}
