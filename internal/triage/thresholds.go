package triage

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidThresholds is returned when a threshold table is not usable
var ErrInvalidThresholds = errors.New("invalid irrigation thresholds")

// LevelThresholds holds the day counts at which a planting of one water-need level
// reaches each urgency tier, plus its water demand and irrigation cadence.
type LevelThresholds struct {
	Moyenne     int     `yaml:"moyenne" json:"moyenne"`
	Haute       int     `yaml:"haute" json:"haute"`
	Critique    int     `yaml:"critique" json:"critique"`
	LitresPerM2 float64 `yaml:"litres_per_m2_week" json:"litres_per_m2_week"`
	CadenceDays int     `yaml:"cadence_days" json:"cadence_days"`
}

// Thresholds configures the triage engine.
type Thresholds struct {
	// Levels is indexed by water-need level; level 1 is the lowest need
	Levels             map[int]LevelThresholds `yaml:"levels" json:"levels"`
	YoungThresholdDays int                     `yaml:"young_threshold_days" json:"young_threshold_days"`
	WindowDays         int                     `yaml:"window_days" json:"window_days"`
}

// DefaultThresholds returns the built-in table: higher water need reaches every tier sooner.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Levels: map[int]LevelThresholds{
			1: {Moyenne: 6, Haute: 10, Critique: 14, LitresPerM2: 5, CadenceDays: 8},
			2: {Moyenne: 4, Haute: 7, Critique: 10, LitresPerM2: 10, CadenceDays: 6},
			3: {Moyenne: 3, Haute: 5, Critique: 7, LitresPerM2: 15, CadenceDays: 4},
			4: {Moyenne: 2, Haute: 3, Critique: 5, LitresPerM2: 20, CadenceDays: 3},
			5: {Moyenne: 1, Haute: 2, Critique: 4, LitresPerM2: 25, CadenceDays: 2},
		},
		YoungThresholdDays: 21,
		WindowDays:         7,
	}
}

// Validate checks that every level is ordered (moyenne <= haute <= critique) and that
// a higher level never needs more days than a lower one to reach the same tier.
func (t Thresholds) Validate() error {
	if len(t.Levels) == 0 {
		return fmt.Errorf("%w: no water-need levels", ErrInvalidThresholds)
	}
	if t.YoungThresholdDays < 0 || t.WindowDays < 0 {
		return fmt.Errorf("%w: negative day count", ErrInvalidThresholds)
	}

	levels := t.sortedLevels()
	for i, lvl := range levels {
		th := t.Levels[lvl]
		if th.Moyenne < 0 || th.Moyenne > th.Haute || th.Haute > th.Critique {
			return fmt.Errorf("%w: level %d thresholds not ordered (%d, %d, %d)",
				ErrInvalidThresholds, lvl, th.Moyenne, th.Haute, th.Critique)
		}
		if th.LitresPerM2 < 0 || th.CadenceDays < 0 {
			return fmt.Errorf("%w: level %d has negative rate or cadence", ErrInvalidThresholds, lvl)
		}
		if i == 0 {
			continue
		}
		prev := t.Levels[levels[i-1]]
		if th.Moyenne > prev.Moyenne || th.Haute > prev.Haute || th.Critique > prev.Critique {
			return fmt.Errorf("%w: level %d reaches a tier later than level %d",
				ErrInvalidThresholds, lvl, levels[i-1])
		}
	}
	return nil
}

func (t Thresholds) sortedLevels() []int {
	levels := make([]int, 0, len(t.Levels))
	for lvl := range t.Levels {
		levels = append(levels, lvl)
	}
	slices.Sort(levels)
	return levels
}

// lowest returns the thresholds of the lowest configured level
func (t Thresholds) lowest() LevelThresholds {
	levels := t.sortedLevels()
	if len(levels) == 0 {
		return LevelThresholds{}
	}
	return t.Levels[levels[0]]
}
