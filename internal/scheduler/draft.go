package scheduler

import "time"

// Source records where a field value came from.
type Source int

const (
	// Derived values were computed by the engine and may be recomputed
	Derived Source = iota
	// UserSet values were entered explicitly and are never clobbered by re-derivation
	UserSet
)

func (s Source) String() string {
	if s == UserSet {
		return "user_set"
	}
	return "derived"
}

// Tracked is a field value tagged with its provenance.
type Tracked[T any] struct {
	Value  T
	Set    bool
	Source Source
}

// Derive writes v unless the field holds a user-set value. It reports whether v was written.
func (f *Tracked[T]) Derive(v T) bool {
	if f.Source == UserSet {
		return false
	}
	f.Value = v
	f.Set = true
	return true
}

// Clear drops a derived value; user-set values are kept.
func (f *Tracked[T]) Clear() {
	if f.Source == UserSet {
		return
	}
	var zero T
	f.Value = zero
	f.Set = false
}

// Override writes v and tags the field as user-set.
func (f *Tracked[T]) Override(v T) {
	f.Value = v
	f.Set = true
	f.Source = UserSet
}

// Reset forgets the value and its provenance.
func (f *Tracked[T]) Reset() {
	*f = Tracked[T]{}
}

// Mode selects how a draft's milestone dates are produced.
type Mode int

const (
	// Scheduled dates are always recomputed from (plan, year, week shift)
	Scheduled Mode = iota
	// Manual dates are frozen and individually editable
	Manual
)

func (m Mode) String() string {
	if m == Manual {
		return "manual"
	}
	return "scheduled"
}

// Milestone names one of the three plan-derived dates.
type Milestone string

const (
	MilestoneSow        Milestone = "sow"
	MilestoneTransplant Milestone = "transplant"
	MilestoneHarvest    Milestone = "harvest"
)

// Draft is the editable state of a planting being planned. Dates follow the plan in
// Scheduled mode; row geometry is filled from plan defaults without clobbering user input.
type Draft struct {
	plan Plan
	year int

	Mode      Mode
	WeekShift int

	Sow        Tracked[time.Time]
	Transplant Tracked[time.Time]
	Harvest    Tracked[time.Time]

	RowCount     Tracked[int]
	RowSpacingCm Tracked[float64]
	LengthM      Tracked[float64]
}

// NewDraft returns a draft in Scheduled mode with zero shift and plan-derived fields.
func NewDraft(plan Plan, year int) *Draft {
	d := &Draft{plan: plan, year: year}
	d.rederive()
	return d
}

// Plan returns the plan the draft is derived from.
func (d *Draft) Plan() Plan { return d.plan }

// Year returns the planning year.
func (d *Draft) Year() int { return d.year }

// SetShift clamps shift to the plan bounds and re-derives all dates in Scheduled mode.
// It returns the shift actually applied.
func (d *Draft) SetShift(shift int) int {
	d.WeekShift = ClampShift(d.plan, shift)
	d.rederive()
	return d.WeekShift
}

// SetPlan swaps the plan (e.g. the user picked another species) and re-derives
// every field that is not user-set.
func (d *Draft) SetPlan(plan Plan) {
	d.plan = plan
	d.WeekShift = ClampShift(plan, d.WeekShift)
	d.rederive()
}

// OverrideDate switches the draft to Manual mode, freezing all three dates, and
// sets one milestone explicitly.
func (d *Draft) OverrideDate(m Milestone, t time.Time) {
	if d.Mode != Manual {
		d.Mode = Manual
		for _, f := range d.dateFields() {
			if f.Set {
				f.Override(f.Value)
			}
		}
	}
	switch m {
	case MilestoneSow:
		d.Sow.Override(t)
	case MilestoneTransplant:
		d.Transplant.Override(t)
	case MilestoneHarvest:
		d.Harvest.Override(t)
	}
}

// UseSchedule returns to Scheduled mode, discarding manual dates and recomputing
// them from (plan, year, week shift).
func (d *Draft) UseSchedule() {
	d.Mode = Scheduled
	for _, f := range d.dateFields() {
		f.Reset()
	}
	d.rederive()
}

// Dates returns the current milestone dates.
func (d *Draft) Dates() Dates {
	var out Dates
	if d.Sow.Set {
		v := d.Sow.Value
		out.SowDate = &v
	}
	if d.Transplant.Set {
		v := d.Transplant.Value
		out.TransplantDate = &v
	}
	if d.Harvest.Set {
		v := d.Harvest.Value
		out.HarvestDate = &v
	}
	return out
}

func (d *Draft) dateFields() []*Tracked[time.Time] {
	return []*Tracked[time.Time]{&d.Sow, &d.Transplant, &d.Harvest}
}

func (d *Draft) rederive() {
	if d.Mode == Scheduled {
		dates := ComputeDates(d.plan, d.year, d.WeekShift)
		deriveTime(&d.Sow, dates.SowDate)
		deriveTime(&d.Transplant, dates.TransplantDate)
		deriveTime(&d.Harvest, dates.HarvestDate)
	}

	if d.plan.RowCountDefault != nil {
		d.RowCount.Derive(*d.plan.RowCountDefault)
	} else {
		d.RowCount.Clear()
	}
	if d.plan.RowSpacingDefaultCm != nil {
		d.RowSpacingCm.Derive(*d.plan.RowSpacingDefaultCm)
	} else {
		d.RowSpacingCm.Clear()
	}
}

func deriveTime(f *Tracked[time.Time], t *time.Time) {
	if t == nil {
		f.Clear()
		return
	}
	f.Derive(*t)
}
