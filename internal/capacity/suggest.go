package capacity

import (
	"fmt"
	"math"
)

// SuggestionKind tags the repair a suggestion proposes.
type SuggestionKind string

const (
	ReduceRowCount SuggestionKind = "reduce_row_count"
	ReduceSpacing  SuggestionKind = "reduce_spacing"
	ReduceLength   SuggestionKind = "reduce_length"
)

// Axis returns the dimension the repair targets.
func (k SuggestionKind) Axis() Axis {
	if k == ReduceLength {
		return AxisLength
	}
	return AxisWidth
}

// Suggestion is one repair for an infeasible candidate. Only the field matching Kind is set.
type Suggestion struct {
	Kind         SuggestionKind `json:"kind"`
	RowCount     int            `json:"row_count,omitempty"`
	RowSpacingCm float64        `json:"row_spacing_cm,omitempty"`
	LengthM      float64        `json:"length_m,omitempty"`
	Message      string         `json:"message"`
	// Recommended marks the first suggestion that restores feasibility on its own
	Recommended bool `json:"recommended"`
}

// Apply returns candidate with the suggested value substituted.
func (s Suggestion) Apply(c Candidate) Candidate {
	switch s.Kind {
	case ReduceRowCount:
		c.RowCount = s.RowCount
	case ReduceSpacing:
		c.RowSpacingCm = s.RowSpacingCm
	case ReduceLength:
		l := s.LengthM
		c.LengthM = &l
	}
	return c
}

// Suggest proposes repairs for a candidate that does not fit; a feasible candidate gets none.
//
// The search is greedy and per axis, not a joint optimiser: row count is tried first
// (fewest rows removed), then the widest spacing down to the agronomic floor, then the
// length. A candidate failing on both axes gets no single suggestion that fixes both,
// so none is marked recommended; callers combine suggestions themselves.
func (v *Validator) Suggest(bed Bed, existing []Planting, candidate Candidate) ([]Suggestion, error) {
	if err := checkInput(bed, existing, candidate); err != nil {
		return nil, err
	}

	m := v.measure(bed, existing, candidate)
	if m.widthOK() && m.lengthOK() {
		return nil, nil
	}

	var out []Suggestion
	if !m.widthOK() {
		if s, ok := reduceRows(m, candidate); ok {
			out = append(out, s)
		}
		if s, ok := reduceSpacing(m, candidate); ok {
			out = append(out, s)
		}
	}
	if !m.lengthOK() {
		out = append(out, Suggestion{
			Kind:    ReduceLength,
			LengthM: fromMM(m.bedLength),
			Message: fmt.Sprintf("Reduce length from %.2f m to the bed length of %.2f m", fromMM(m.length), fromMM(m.bedLength)),
		})
	}

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}

	for i := range out {
		applied := v.measure(bed, existing, out[i].Apply(candidate))
		if applied.widthOK() && applied.lengthOK() {
			out[i].Recommended = true
			break
		}
	}

	return out, nil
}

func reduceRows(m measurement, c Candidate) (Suggestion, bool) {
	for rows := c.RowCount - 1; rows >= 1; rows-- {
		required := requiredMM(rows, c.RowSpacingCm)
		if required <= m.available {
			return Suggestion{
				Kind:     ReduceRowCount,
				RowCount: rows,
				Message: fmt.Sprintf("Reduce to %d rows (%.2f m required, %.2f m available)",
					rows, fromMM(required), fromMM(m.available)),
			}, true
		}
	}
	return Suggestion{}, false
}

func reduceSpacing(m measurement, c Candidate) (Suggestion, bool) {
	if c.MinRowSpacingCm == nil || c.RowCount < 2 || m.available < 0 {
		return Suggestion{}, false
	}
	gaps := int64(c.RowCount - 1)

	// widest whole-centimetre spacing whose gaps fit the available width
	spacing := math.Floor(float64(m.available) / float64(gaps*10))
	if spacing <= 0 || spacing < *c.MinRowSpacingCm || spacing >= c.RowSpacingCm {
		return Suggestion{}, false
	}

	return Suggestion{
		Kind:         ReduceSpacing,
		RowSpacingCm: spacing,
		Message: fmt.Sprintf("Reduce row spacing from %.0f cm to %.0f cm (minimum %.0f cm)",
			c.RowSpacingCm, spacing, *c.MinRowSpacingCm),
	}, true
}
