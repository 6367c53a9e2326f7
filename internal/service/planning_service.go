package service

import (
	"errors"
	"fmt"
	"time"

	"cultivation-planner/internal/capacity"
	"cultivation-planner/internal/model"
	"cultivation-planner/internal/repository"
	"cultivation-planner/internal/scheduler"
	"cultivation-planner/internal/yield"
)

var (
	// ErrInvalidRequest is returned when a request lacks what the operation needs
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInfeasible is returned when a planting does not fit its bed
	ErrInfeasible = errors.New("planting does not fit the bed")
	// ErrUnavailable is returned when the bed's state could not be loaded, so fit is unknown
	ErrUnavailable = errors.New("capacity validation unavailable")
)

// CheckStatus tells whether a capacity check could be performed at all
type CheckStatus string

const (
	StatusAvailable   CheckStatus = "available"
	StatusUnavailable CheckStatus = "unavailable"
)

// PlanningService defines the interface for planning operations
type PlanningService interface {
	ScheduleDates(planID uint, year, shift int) (*ScheduleResponse, error)
	CheckCapacity(bedID uint, req CapacityRequest) (*CapacityCheck, error)
	CreatePlanting(bedID uint, req PlantingRequest) (*model.Planting, error)
	RetirePlanting(id uint, at time.Time) error
}

// ScheduleResponse holds the dates of a plan for one year and shift
type ScheduleResponse struct {
	PlanID    uint            `json:"plan_id"`
	Year      int             `json:"year"`
	WeekShift int             `json:"week_shift"`
	Dates     scheduler.Dates `json:"dates"`
}

// CapacityRequest describes a candidate planting. Zero geometry is filled from the
// plan's defaults when PlanID is given.
type CapacityRequest struct {
	PlanID          *uint    `json:"plan_id,omitempty"`
	RowCount        int      `json:"row_count"`
	RowSpacingCm    float64  `json:"row_spacing_cm"`
	LengthM         *float64 `json:"length_m,omitempty"`
	MinRowSpacingCm *float64 `json:"min_row_spacing_cm,omitempty"`
}

// CapacityCheck is the outcome of a capacity check. An unavailable check carries only
// a Reason: it says nothing about whether the candidate fits.
type CapacityCheck struct {
	Status      CheckStatus           `json:"status"`
	Result      *capacity.Result      `json:"result,omitempty"`
	Suggestions []capacity.Suggestion `json:"suggestions,omitempty"`
	Estimate    *yield.Estimate       `json:"estimate,omitempty"`
	Reason      string                `json:"reason,omitempty"`
}

// PlantingRequest places a plan on a bed. Without PlantingDate the planting date is the
// plan's transplant date (sow date for direct-sown crops) in Year shifted by WeekShift.
type PlantingRequest struct {
	PlanID       uint       `json:"plan_id"`
	Year         int        `json:"year"`
	WeekShift    int        `json:"week_shift"`
	RowCount     int        `json:"row_count"`
	RowSpacingCm float64    `json:"row_spacing_cm"`
	LengthM      *float64   `json:"length_m,omitempty"`
	PlantingDate *time.Time `json:"planting_date,omitempty"`
}

// InfeasibleError carries the check that rejected a planting
type InfeasibleError struct {
	Check CapacityCheck
}

func (e *InfeasibleError) Error() string {
	if e.Check.Result == nil {
		return ErrInfeasible.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInfeasible, e.Check.Result.Message)
}

func (e *InfeasibleError) Unwrap() error {
	return ErrInfeasible
}

// planningService implements PlanningService
type planningService struct {
	repo      repository.PlanningRepository
	validator *capacity.Validator
}

// NewPlanningService creates a new planning service using the given bed margin
func NewPlanningService(repo repository.PlanningRepository, marginM float64) PlanningService {
	return &planningService{repo: repo, validator: capacity.New(marginM)}
}

// ScheduleDates computes the milestone dates of a plan
func (s *planningService) ScheduleDates(planID uint, year, shift int) (*ScheduleResponse, error) {
	cp, err := s.repo.GetCultivationPlan(planID)
	if err != nil {
		return nil, err
	}
	plan := schedulerPlan(*cp)
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := scheduler.CheckShift(plan, shift); err != nil {
		return nil, err
	}

	return &ScheduleResponse{
		PlanID:    planID,
		Year:      year,
		WeekShift: shift,
		Dates:     scheduler.ComputeDates(plan, year, shift),
	}, nil
}

// CheckCapacity validates a candidate against a bed. A missing bed or plan is an error;
// any other failure to load the bed's state yields StatusUnavailable.
func (s *planningService) CheckCapacity(bedID uint, req CapacityRequest) (*CapacityCheck, error) {
	bed, err := s.repo.GetBed(bedID)
	if err != nil {
		return unavailable(err)
	}

	var cp *model.CultivationPlan
	if req.PlanID != nil {
		if cp, err = s.repo.GetCultivationPlan(*req.PlanID); err != nil {
			return unavailable(err)
		}
	}

	existing, err := s.repo.ListActivePlantings(bedID)
	if err != nil {
		return unavailable(err)
	}

	candidate := capacity.Candidate{
		RowCount:        req.RowCount,
		RowSpacingCm:    req.RowSpacingCm,
		LengthM:         req.LengthM,
		MinRowSpacingCm: req.MinRowSpacingCm,
	}
	if cp != nil {
		draft := scheduler.NewDraft(schedulerPlan(*cp), 0)
		applyGeometry(draft, req.RowCount, req.RowSpacingCm, req.LengthM)
		candidate.RowCount = draft.RowCount.Value
		candidate.RowSpacingCm = draft.RowSpacingCm.Value
		if candidate.MinRowSpacingCm == nil {
			candidate.MinRowSpacingCm = cp.Species.MinRowSpacingCm
		}
	}

	return s.check(*bed, existing, candidate, cp)
}

// CreatePlanting checks the candidate, then stores it. The repository repeats the
// capacity check at write time; losing that race yields repository.ErrCapacityConflict.
func (s *planningService) CreatePlanting(bedID uint, req PlantingRequest) (*model.Planting, error) {
	if req.PlanID == 0 {
		return nil, fmt.Errorf("%w: plan_id is required", ErrInvalidRequest)
	}

	bed, err := s.repo.GetBed(bedID)
	if err != nil {
		return nil, unavailableErr(err)
	}
	cp, err := s.repo.GetCultivationPlan(req.PlanID)
	if err != nil {
		return nil, unavailableErr(err)
	}
	plan := schedulerPlan(*cp)
	if err := scheduler.CheckShift(plan, req.WeekShift); err != nil {
		return nil, err
	}

	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}
	draft := scheduler.NewDraft(plan, year)
	draft.SetShift(req.WeekShift)
	applyGeometry(draft, req.RowCount, req.RowSpacingCm, req.LengthM)
	if !draft.LengthM.Set {
		draft.LengthM.Derive(bed.LengthM)
	}
	if req.PlantingDate != nil {
		draft.OverrideDate(scheduler.MilestoneTransplant, *req.PlantingDate)
	}

	plantingDate, ok := plantingDateOf(draft)
	if !ok {
		return nil, fmt.Errorf("%w: plan %d has no sow or transplant week, planting_date is required", ErrInvalidRequest, req.PlanID)
	}

	length := draft.LengthM.Value
	candidate := capacity.Candidate{
		RowCount:        draft.RowCount.Value,
		RowSpacingCm:    draft.RowSpacingCm.Value,
		LengthM:         &length,
		MinRowSpacingCm: cp.Species.MinRowSpacingCm,
	}

	existing, err := s.repo.ListActivePlantings(bedID)
	if err != nil {
		return nil, unavailableErr(err)
	}
	check, err := s.check(*bed, existing, candidate, cp)
	if err != nil {
		return nil, err
	}
	if !check.Result.Possible {
		return nil, &InfeasibleError{Check: *check}
	}

	p := &model.Planting{
		BedID:             bedID,
		CultivationPlanID: req.PlanID,
		RowCount:          candidate.RowCount,
		RowSpacingCm:      candidate.RowSpacingCm,
		LengthM:           length,
		PlantingDate:      plantingDate,
	}
	if err := s.repo.CreatePlanting(p, s.validator.MarginM()); err != nil {
		return nil, err
	}
	return p, nil
}

// RetirePlanting frees the rows of a planting
func (s *planningService) RetirePlanting(id uint, at time.Time) error {
	return s.repo.RetirePlanting(id, at)
}

func (s *planningService) check(bed model.Bed, existing []model.Planting, candidate capacity.Candidate, cp *model.CultivationPlan) (*CapacityCheck, error) {
	cb := capacityBed(bed)
	cps := capacityPlantings(existing)

	result, err := s.validator.Validate(cb, cps, candidate)
	if err != nil {
		return nil, err
	}
	out := &CapacityCheck{Status: StatusAvailable, Result: &result}

	if !result.Possible {
		suggestions, err := s.validator.Suggest(cb, cps, candidate)
		if err != nil {
			return nil, err
		}
		out.Suggestions = suggestions
	}

	if cp != nil {
		length := bed.LengthM
		if candidate.LengthM != nil {
			length = *candidate.LengthM
		}
		est, err := yield.EstimateYield(yieldInput(candidate.RowCount, candidate.RowSpacingCm, length, cp.Species))
		if err != nil {
			return nil, err
		}
		out.Estimate = &est
	}
	return out, nil
}

// applyGeometry records caller-provided geometry as user-set so plan defaults fill only the rest
func applyGeometry(d *scheduler.Draft, rows int, spacingCm float64, lengthM *float64) {
	if rows > 0 {
		d.RowCount.Override(rows)
	}
	if spacingCm > 0 {
		d.RowSpacingCm.Override(spacingCm)
	}
	if lengthM != nil {
		d.LengthM.Override(*lengthM)
	}
}

func plantingDateOf(d *scheduler.Draft) (time.Time, bool) {
	if d.Transplant.Set {
		return d.Transplant.Value, true
	}
	if d.Sow.Set {
		return d.Sow.Value, true
	}
	return time.Time{}, false
}

func unavailable(err error) (*CapacityCheck, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &CapacityCheck{Status: StatusUnavailable, Reason: err.Error()}, nil
}

// unavailableErr is the error form of unavailable, for operations that return no check
func unavailableErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
