package service

import (
	"errors"
	"fmt"
	"time"

	"cultivation-planner/internal/model"
	"cultivation-planner/internal/repository"
	"cultivation-planner/internal/triage"
)

// ErrPlantingRetired is returned when triaging a planting that no longer occupies its bed
var ErrPlantingRetired = errors.New("planting is retired")

// IrrigationService defines the interface for irrigation triage operations
type IrrigationService interface {
	ClassifyPlanting(id uint, now time.Time) (*triage.Classification, error)
	Summary(groupKey string, now time.Time) (*triage.Summary, error)
	MarkWatered(plantingIDs []uint, at time.Time) (*triage.ChangeSet, error)
	ScheduleIrrigation(plantingID uint, from, to time.Time) ([]model.IrrigationEvent, error)
}

// irrigationService implements IrrigationService
type irrigationService struct {
	repo   repository.PlanningRepository
	engine *triage.Engine
}

// NewIrrigationService creates a new irrigation service
func NewIrrigationService(repo repository.PlanningRepository, thresholds triage.Thresholds) IrrigationService {
	return &irrigationService{repo: repo, engine: triage.New(thresholds)}
}

// ClassifyPlanting triages one active planting
func (s *irrigationService) ClassifyPlanting(id uint, now time.Time) (*triage.Classification, error) {
	subject, err := s.subject(id)
	if err != nil {
		return nil, err
	}
	c := s.engine.Classify(subject, now)
	return &c, nil
}

// Summary triages every active planting and groups the result
func (s *irrigationService) Summary(groupKey string, now time.Time) (*triage.Summary, error) {
	key, err := triage.ParseGroupKey(groupKey)
	if err != nil {
		return nil, err
	}

	plantings, err := s.repo.ListActivePlantingsDetailed()
	if err != nil {
		return nil, fmt.Errorf("failed to list active plantings: %w", err)
	}
	subjects := make([]triage.Subject, 0, len(plantings))
	for _, p := range plantings {
		subjects = append(subjects, triageSubject(p, p.IrrigationEvents))
	}

	summary, err := triage.AggregateByGroup(s.engine.ClassifyAll(subjects, now), key)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// MarkWatered resets the watering baseline of one or many plantings in one batch
func (s *irrigationService) MarkWatered(plantingIDs []uint, at time.Time) (*triage.ChangeSet, error) {
	cs, err := triage.MarkWatered(at, plantingIDs...)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ApplyWatering(cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

// ScheduleIrrigation plans the planting's irrigations within [from, to] and stores the new ones
func (s *irrigationService) ScheduleIrrigation(plantingID uint, from, to time.Time) ([]model.IrrigationEvent, error) {
	subject, err := s.subject(plantingID)
	if err != nil {
		return nil, err
	}

	projected, err := s.engine.ProjectEvents(subject, from, to)
	if err != nil {
		return nil, err
	}
	events := modelEvents(projected)
	if err := s.repo.AppendIrrigationEvents(events); err != nil {
		return nil, fmt.Errorf("failed to store irrigation events: %w", err)
	}
	return events, nil
}

func (s *irrigationService) subject(id uint) (triage.Subject, error) {
	p, err := s.repo.GetPlanting(id)
	if err != nil {
		return triage.Subject{}, err
	}
	if !p.Active() {
		return triage.Subject{}, fmt.Errorf("%w: planting %d", ErrPlantingRetired, id)
	}

	events, err := s.repo.ListIrrigationEvents(repository.EventFilter{PlantingID: &id})
	if err != nil {
		return triage.Subject{}, fmt.Errorf("failed to list irrigation events: %w", err)
	}
	return triageSubject(*p, events), nil
}
