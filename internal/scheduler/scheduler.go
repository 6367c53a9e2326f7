package scheduler

import (
	"errors"
	"fmt"
	"time"

	"cultivation-planner/internal/calendar"
)

var (
	// ErrShiftOutOfRange is returned when a week shift exceeds the plan's MaxWeekShift
	ErrShiftOutOfRange = errors.New("week shift out of range")
	// ErrInvalidPlan is returned when a plan carries negative durations or shift bounds
	ErrInvalidPlan = errors.New("invalid cultivation plan")
)

// Plan is a species-specific cultivation template with week-numbered milestones.
// Every week field is optional and independent of the others.
type Plan struct {
	SowWeek              *int `json:"sow_week,omitempty"`
	TransplantWeek       *int `json:"transplant_week,omitempty"`
	HarvestWeek          *int `json:"harvest_week,omitempty"`
	HarvestDurationWeeks *int `json:"harvest_duration_weeks,omitempty"`
	NurseryDurationDays  *int `json:"nursery_duration_days,omitempty"`
	TotalDurationDays    *int `json:"total_duration_days,omitempty"`

	RowCountDefault     *int     `json:"row_count_default,omitempty"`
	RowSpacingDefaultCm *float64 `json:"row_spacing_default_cm,omitempty"`

	MaxWeekShift int `json:"max_week_shift"`
}

// Dates holds the concrete calendar dates derived from a plan. Absent plan weeks yield nil dates.
type Dates struct {
	SowDate        *time.Time `json:"sow_date,omitempty"`
	TransplantDate *time.Time `json:"transplant_date,omitempty"`
	HarvestDate    *time.Time `json:"harvest_date,omitempty"`
	HarvestEndDate *time.Time `json:"harvest_end_date,omitempty"`
}

// Validate checks the plan for contract violations.
func (p Plan) Validate() error {
	if p.MaxWeekShift < 0 {
		return fmt.Errorf("%w: max_week_shift %d is negative", ErrInvalidPlan, p.MaxWeekShift)
	}
	durations := map[string]*int{
		"harvest_duration_weeks": p.HarvestDurationWeeks,
		"nursery_duration_days":  p.NurseryDurationDays,
		"total_duration_days":    p.TotalDurationDays,
	}
	for name, v := range durations {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s %d is negative", ErrInvalidPlan, name, *v)
		}
	}
	if p.RowCountDefault != nil && *p.RowCountDefault < 0 {
		return fmt.Errorf("%w: row_count_default %d is negative", ErrInvalidPlan, *p.RowCountDefault)
	}
	if p.RowSpacingDefaultCm != nil && *p.RowSpacingDefaultCm < 0 {
		return fmt.Errorf("%w: row_spacing_default_cm %.1f is negative", ErrInvalidPlan, *p.RowSpacingDefaultCm)
	}
	return nil
}

// ClampShift bounds shift to [-MaxWeekShift, +MaxWeekShift].
func ClampShift(plan Plan, shift int) int {
	bound := max(plan.MaxWeekShift, 0)
	return min(max(shift, -bound), bound)
}

// CheckShift rejects shifts outside [-MaxWeekShift, +MaxWeekShift].
func CheckShift(plan Plan, shift int) error {
	if ClampShift(plan, shift) != shift {
		return fmt.Errorf("%w: %d not within ±%d", ErrShiftOutOfRange, shift, plan.MaxWeekShift)
	}
	return nil
}

// ComputeDates derives sow, transplant and harvest dates from plan weeks plus weekShift.
// All dates are re-derived together from the same shift so the trio cannot drift apart.
//
// A milestone week numerically before the preceding present milestone is placed in the
// following year (overwintering crops sown in autumn and harvested next summer). The
// decision is made on unshifted weeks, so the result stays additive in weekShift.
func ComputeDates(plan Plan, year, weekShift int) Dates {
	var dates Dates

	milestones := []struct {
		week *int
		dst  **time.Time
	}{
		{plan.SowWeek, &dates.SowDate},
		{plan.TransplantWeek, &dates.TransplantDate},
		{plan.HarvestWeek, &dates.HarvestDate},
	}

	prev := 0
	carry := 0 // weeks added for milestones that fall in a later year
	wraps := 0
	seen := false
	for _, m := range milestones {
		if m.week == nil {
			continue
		}
		week := *m.week
		if seen && week < prev {
			carry += calendar.WeeksInYear(year + wraps)
			wraps++
		}
		d := calendar.WeekToDate(year, week+carry+weekShift)
		*m.dst = &d
		prev = week
		seen = true
	}

	if dates.HarvestDate != nil && plan.HarvestDurationWeeks != nil {
		end := dates.HarvestDate.AddDate(0, 0, *plan.HarvestDurationWeeks*7)
		dates.HarvestEndDate = &end
	}

	return dates
}
