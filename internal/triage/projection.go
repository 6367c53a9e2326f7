package triage

import (
	"errors"
	"time"

	"cultivation-planner/internal/calendar"
)

// ErrInvalidWindow is returned when a projection window ends before it starts
var ErrInvalidWindow = errors.New("projection window ends before it starts")

// ProjectEvents plans irrigations for a planting within [from, to] at the cadence of its
// water-need level, counting from the last watering (or the planting date when never
// watered). Days that already carry a planned event are skipped, so re-running a
// projection over the same window appends nothing.
func (e *Engine) ProjectEvents(s Subject, from, to time.Time) ([]Event, error) {
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}

	level, _ := e.level(s.WaterNeedLevel)
	if level.CadenceDays <= 0 {
		return nil, nil
	}

	planned := make(map[string]bool, len(s.Events))
	for _, ev := range s.Events {
		planned[dayKey(ev.PlannedDate)] = true
	}

	anchor := startOfDay(s.PlantingDate)
	if s.LastWateredAt != nil {
		anchor = startOfDay(*s.LastWateredAt)
	}
	first := startOfDay(from)
	last := startOfDay(to)

	next := anchor.AddDate(0, 0, level.CadenceDays)
	if next.Before(first) {
		// skip whole cadence periods up to the window start
		gap := calendar.DaysBetween(next, first)
		periods := (gap + level.CadenceDays - 1) / level.CadenceDays
		next = next.AddDate(0, 0, periods*level.CadenceDays)
	}

	var out []Event
	for d := next; !d.After(last); d = d.AddDate(0, 0, level.CadenceDays) {
		if planned[dayKey(d)] {
			continue
		}
		out = append(out, Event{PlantingID: s.PlantingID, PlannedDate: d})
	}
	return out, nil
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
