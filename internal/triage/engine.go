package triage

import (
	"math"
	"time"

	"cultivation-planner/internal/calendar"
)

// Tier is an irrigation urgency classification.
type Tier string

const (
	TierNever    Tier = "never"
	TierCritique Tier = "critique"
	TierHaute    Tier = "haute"
	TierMoyenne  Tier = "moyenne"
	TierFaible   Tier = "faible"
)

// Tiers lists every tier from most to least urgent.
var Tiers = []Tier{TierNever, TierCritique, TierHaute, TierMoyenne, TierFaible}

// Rank orders tiers by urgency; a never-watered planting outranks everything.
func (t Tier) Rank() int {
	switch t {
	case TierNever:
		return 5
	case TierCritique:
		return 4
	case TierHaute:
		return 3
	case TierMoyenne:
		return 2
	case TierFaible:
		return 1
	}
	return 0
}

// Event is a scheduled irrigation for a planting.
type Event struct {
	ID          uint       `json:"id,omitempty"`
	PlantingID  uint       `json:"planting_id"`
	PlannedDate time.Time  `json:"planned_date"`
	ActualDate  *time.Time `json:"actual_date,omitempty"`
	Done        bool       `json:"done"`
}

// Subject is the snapshot of one active planting the engine classifies.
type Subject struct {
	PlantingID     uint       `json:"planting_id"`
	BedID          uint       `json:"bed_id"`
	PlantingDate   time.Time  `json:"planting_date"`
	LastWateredAt  *time.Time `json:"last_watered_at,omitempty"`
	WaterNeedLevel *int       `json:"water_need_level,omitempty"`
	IrrigationType string     `json:"irrigation_type"`
	SurfaceM2      float64    `json:"surface_m2"`
	Events         []Event    `json:"events,omitempty"`
}

// Classification is the triage outcome for one planting.
type Classification struct {
	PlantingID     uint   `json:"planting_id"`
	BedID          uint   `json:"bed_id"`
	IrrigationType string `json:"irrigation_type"`

	Tier                       Tier    `json:"tier"`
	DaysSinceWatered           *int    `json:"days_since_watered"`
	AgeDays                    int     `json:"age_days"`
	IsYoung                    bool    `json:"is_young"`
	Unclassified               bool    `json:"unclassified"`
	WeeklyConsumptionEstimateL float64 `json:"weekly_consumption_estimate_l"`
	UpcomingCount              int     `json:"upcoming_count"`
}

// Engine classifies plantings by irrigation urgency.
type Engine struct {
	th Thresholds
}

// New creates an engine; the thresholds are expected to be validated by the caller.
func New(th Thresholds) *Engine {
	return &Engine{th: th}
}

// Thresholds returns the engine's configuration.
func (e *Engine) Thresholds() Thresholds {
	return e.th
}

// Classify computes the urgency tier, age and water demand of a planting at now.
// A planting never watered is TierNever; a planting without a known water-need
// level degrades to TierFaible with Unclassified set.
func (e *Engine) Classify(s Subject, now time.Time) Classification {
	c := Classification{
		PlantingID:     s.PlantingID,
		BedID:          s.BedID,
		IrrigationType: s.IrrigationType,
		AgeDays:        max(calendar.DaysBetween(s.PlantingDate, now), 0),
		UpcomingCount:  e.Upcoming(s.Events, now),
	}
	c.IsYoung = c.AgeDays < e.th.YoungThresholdDays

	level, known := e.level(s.WaterNeedLevel)
	c.Unclassified = !known
	c.WeeklyConsumptionEstimateL = math.Round(s.SurfaceM2*level.LitresPerM2*100) / 100

	if s.LastWateredAt == nil {
		c.Tier = TierNever
		return c
	}

	days := max(calendar.DaysBetween(*s.LastWateredAt, now), 0)
	c.DaysSinceWatered = &days

	if !known {
		c.Tier = TierFaible
		return c
	}
	c.Tier = tierFor(days, level)
	return c
}

// ClassifyAll classifies every subject at the same instant.
func (e *Engine) ClassifyAll(subjects []Subject, now time.Time) []Classification {
	out := make([]Classification, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, e.Classify(s, now))
	}
	return out
}

// Upcoming counts not-done events planned within [now, now+WindowDays].
// Planned dates are calendar days, so an event planned for today counts all day long.
func (e *Engine) Upcoming(events []Event, now time.Time) int {
	start := startOfDay(now)
	end := now.AddDate(0, 0, e.th.WindowDays)
	n := 0
	for _, ev := range events {
		if ev.Done {
			continue
		}
		if ev.PlannedDate.Before(start) || ev.PlannedDate.After(end) {
			continue
		}
		n++
	}
	return n
}

func (e *Engine) level(lvl *int) (LevelThresholds, bool) {
	if lvl != nil {
		if th, ok := e.th.Levels[*lvl]; ok {
			return th, true
		}
	}
	return e.th.lowest(), false
}

func tierFor(days int, th LevelThresholds) Tier {
	switch {
	case days >= th.Critique:
		return TierCritique
	case days >= th.Haute:
		return TierHaute
	case days >= th.Moyenne:
		return TierMoyenne
	default:
		return TierFaible
	}
}

// startOfDay is UTC midnight; planned dates are stored as UTC calendar days.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
