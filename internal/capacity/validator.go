package capacity

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// FixedMarginM is the working margin subtracted from a bed's width
	FixedMarginM = 0.2
	// MaxSuggestions caps the number of repair suggestions returned
	MaxSuggestions = 5
)

// ErrInvalidGeometry is returned when the caller passes negative or non-finite geometry
var ErrInvalidGeometry = errors.New("invalid geometry")

// Axis names the dimension on which a capacity check failed.
type Axis string

const (
	AxisWidth  Axis = "width"
	AxisLength Axis = "length"
)

// Bed is the fixed-geometry strip plantings are placed on.
type Bed struct {
	ID      uint    `json:"id"`
	WidthM  float64 `json:"width_m"`
	LengthM float64 `json:"length_m"`
}

// Planting is an existing active planting occupying rows on a bed.
type Planting struct {
	ID           uint    `json:"id"`
	RowCount     int     `json:"row_count"`
	RowSpacingCm float64 `json:"row_spacing_cm"`
	LengthM      float64 `json:"length_m"`
}

// Candidate is the planting the user wants to place on a bed.
type Candidate struct {
	RowCount     int      `json:"row_count"`
	RowSpacingCm float64  `json:"row_spacing_cm"`
	LengthM      *float64 `json:"length_m,omitempty"`
	// MinRowSpacingCm is the agronomic spacing floor; nil disables spacing suggestions
	MinRowSpacingCm *float64 `json:"min_row_spacing_cm,omitempty"`
}

// Result is the outcome of a capacity check.
type Result struct {
	Possible        bool    `json:"possible"`
	UsableWidthM    float64 `json:"usable_width_m"`
	OccupiedWidthM  float64 `json:"occupied_width_m"`
	AvailableWidthM float64 `json:"available_width_m"`
	RequiredWidthM  float64 `json:"required_width_m"`
	FailedAxes      []Axis  `json:"failed_axes,omitempty"`
	Message         string  `json:"message,omitempty"`
}

// Fails reports whether the check failed on the given axis.
func (r Result) Fails(axis Axis) bool {
	for _, a := range r.FailedAxes {
		if a == axis {
			return true
		}
	}
	return false
}

// Validator checks candidate plantings against a bed's remaining capacity.
// Geometry is compared in whole millimetres so repeated checks are exact.
type Validator struct {
	marginMM int64
}

// New creates a validator using the given working margin in metres.
func New(marginM float64) *Validator {
	return &Validator{marginMM: max(toMM(marginM), 0)}
}

var defaultValidator = New(FixedMarginM)

// ValidateCapacity checks a candidate against a bed using FixedMarginM.
func ValidateCapacity(bed Bed, existing []Planting, candidate Candidate) (Result, error) {
	return defaultValidator.Validate(bed, existing, candidate)
}

// SuggestAdjustments proposes repairs for an infeasible candidate using FixedMarginM.
func SuggestAdjustments(bed Bed, existing []Planting, candidate Candidate) ([]Suggestion, error) {
	return defaultValidator.Suggest(bed, existing, candidate)
}

// RequiredWidthM returns the width taken by rowCount rows: the gaps between them.
func RequiredWidthM(rowCount int, rowSpacingCm float64) float64 {
	return fromMM(requiredMM(rowCount, rowSpacingCm))
}

// UsableWidthM returns the bed width left after the validator's margin.
func (v *Validator) UsableWidthM(bed Bed) float64 {
	return fromMM(v.usableMM(bed))
}

// MarginM returns the configured working margin.
func (v *Validator) MarginM() float64 {
	return fromMM(v.marginMM)
}

// measurement holds one capacity computation in millimetres
type measurement struct {
	usable    int64
	occupied  int64
	available int64
	required  int64
	bedLength int64
	length    int64
	hasLength bool
}

func (m measurement) widthOK() bool {
	return m.required <= m.available
}

func (m measurement) lengthOK() bool {
	return !m.hasLength || m.length <= m.bedLength
}

// Validate checks whether candidate fits on bed alongside existing plantings.
// An infeasible candidate is a normal result; errors are reserved for malformed input.
func (v *Validator) Validate(bed Bed, existing []Planting, candidate Candidate) (Result, error) {
	if err := checkInput(bed, existing, candidate); err != nil {
		return Result{}, err
	}
	return v.result(v.measure(bed, existing, candidate)), nil
}

func (v *Validator) usableMM(bed Bed) int64 {
	return max(toMM(bed.WidthM)-v.marginMM, 0)
}

func (v *Validator) measure(bed Bed, existing []Planting, candidate Candidate) measurement {
	m := measurement{
		usable:    v.usableMM(bed),
		required:  requiredMM(candidate.RowCount, candidate.RowSpacingCm),
		bedLength: toMM(bed.LengthM),
	}
	for _, p := range existing {
		m.occupied += requiredMM(p.RowCount, p.RowSpacingCm)
	}
	m.available = m.usable - m.occupied
	if candidate.LengthM != nil {
		m.hasLength = true
		m.length = toMM(*candidate.LengthM)
	}
	return m
}

func (v *Validator) result(m measurement) Result {
	res := Result{
		UsableWidthM:    fromMM(m.usable),
		OccupiedWidthM:  fromMM(m.occupied),
		AvailableWidthM: fromMM(m.available),
		RequiredWidthM:  fromMM(m.required),
	}

	var problems []string
	if !m.widthOK() {
		res.FailedAxes = append(res.FailedAxes, AxisWidth)
		problems = append(problems, fmt.Sprintf(
			"width: requires %.2f m but only %.2f m available (short by %.2f m)",
			fromMM(m.required), fromMM(m.available), fromMM(m.required-m.available)))
	}
	if !m.lengthOK() {
		res.FailedAxes = append(res.FailedAxes, AxisLength)
		problems = append(problems, fmt.Sprintf(
			"length: %.2f m exceeds bed length %.2f m by %.2f m",
			fromMM(m.length), fromMM(m.bedLength), fromMM(m.length-m.bedLength)))
	}

	res.Possible = len(problems) == 0
	res.Message = strings.Join(problems, "; ")
	return res
}

func checkInput(bed Bed, existing []Planting, candidate Candidate) error {
	if err := checkLength("bed width", bed.WidthM); err != nil {
		return err
	}
	if err := checkLength("bed length", bed.LengthM); err != nil {
		return err
	}
	for _, p := range existing {
		if p.RowCount < 0 {
			return fmt.Errorf("%w: planting %d has %d rows", ErrInvalidGeometry, p.ID, p.RowCount)
		}
		if err := checkLength(fmt.Sprintf("planting %d row spacing", p.ID), p.RowSpacingCm); err != nil {
			return err
		}
	}
	if candidate.RowCount < 0 {
		return fmt.Errorf("%w: candidate has %d rows", ErrInvalidGeometry, candidate.RowCount)
	}
	if err := checkLength("candidate row spacing", candidate.RowSpacingCm); err != nil {
		return err
	}
	if candidate.LengthM != nil {
		if err := checkLength("candidate length", *candidate.LengthM); err != nil {
			return err
		}
	}
	if candidate.MinRowSpacingCm != nil {
		if err := checkLength("minimum row spacing", *candidate.MinRowSpacingCm); err != nil {
			return err
		}
	}
	return nil
}

func checkLength(name string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is %v", ErrInvalidGeometry, name, v)
	}
	return nil
}

func requiredMM(rowCount int, rowSpacingCm float64) int64 {
	if rowCount <= 1 {
		return 0
	}
	return int64(math.Round(float64(rowCount-1) * rowSpacingCm * 10))
}

func toMM(m float64) int64 {
	return int64(math.Round(m * 1000))
}

func fromMM(mm int64) float64 {
	return float64(mm) / 1000
}
