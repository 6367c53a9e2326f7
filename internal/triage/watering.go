package triage

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyChangeSet is returned when no planting is given to MarkWatered
	ErrEmptyChangeSet = errors.New("no plantings to mark as watered")
	// ErrInvalidTimestamp is returned for a zero watering timestamp
	ErrInvalidTimestamp = errors.New("watering timestamp is required")
)

// WateringUpdate resets the watering baseline of one planting.
type WateringUpdate struct {
	PlantingID    uint      `json:"planting_id"`
	LastWateredAt time.Time `json:"last_watered_at"`
}

// ChangeSet describes one logical watering batch. The engine only describes the change;
// the persistence layer applies every update, and the completion of the plantings'
// pending events planned up to WateredAt, in a single transaction.
type ChangeSet struct {
	ID          uuid.UUID        `json:"id"`
	WateredAt   time.Time        `json:"watered_at"`
	PlantingIDs []uint           `json:"planting_ids"`
	Updates     []WateringUpdate `json:"updates"`
}

// MarkWatered builds the change-set for watering one planting or a whole group at once.
// Duplicate ids are collapsed and ids are sorted.
func MarkWatered(at time.Time, plantingIDs ...uint) (ChangeSet, error) {
	if at.IsZero() {
		return ChangeSet{}, ErrInvalidTimestamp
	}
	// stored timestamps compare as text on sqlite, so every instant is kept in UTC
	at = at.UTC()
	ids := slices.Clone(plantingIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) == 0 {
		return ChangeSet{}, ErrEmptyChangeSet
	}

	cs := ChangeSet{
		ID:          uuid.New(),
		WateredAt:   at,
		PlantingIDs: ids,
		Updates:     make([]WateringUpdate, 0, len(ids)),
	}
	for _, id := range ids {
		cs.Updates = append(cs.Updates, WateringUpdate{PlantingID: id, LastWateredAt: at})
	}
	return cs, nil
}

// Covers reports whether the change-set touches the planting.
func (cs ChangeSet) Covers(plantingID uint) bool {
	_, found := slices.BinarySearch(cs.PlantingIDs, plantingID)
	return found
}

// Apply returns the subject as it looks after the change-set: a new watering baseline
// and its pending events up to the watering marked done.
func (cs ChangeSet) Apply(s Subject) Subject {
	if !cs.Covers(s.PlantingID) {
		return s
	}
	at := cs.WateredAt
	s.LastWateredAt = &at

	events := slices.Clone(s.Events)
	for i := range events {
		if !events[i].Done && !events[i].PlannedDate.After(at) {
			events[i].Done = true
			events[i].ActualDate = &at
		}
	}
	s.Events = events
	return s
}
