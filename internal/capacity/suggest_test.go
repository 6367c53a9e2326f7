package capacity

import (
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestAdjustments_ReduceRowsFirst(t *testing.T) {
	bed := Bed{ID: 1, WidthM: 0.8, LengthM: 10}
	existing := []Planting{{ID: 2, RowCount: 2, RowSpacingCm: 30, LengthM: 10}}
	candidate := Candidate{RowCount: 3, RowSpacingCm: 30}

	res, err := ValidateCapacity(bed, existing, candidate)
	require.NoError(t, err)
	require.False(t, res.Possible)

	suggestions, err := SuggestAdjustments(bed, existing, candidate)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	top := suggestions[0]
	assert.Equal(t, ReduceRowCount, top.Kind)
	assert.Equal(t, 2, top.RowCount)
	assert.True(t, top.Recommended)

	fixed, err := ValidateCapacity(bed, existing, top.Apply(candidate))
	require.NoError(t, err)
	assert.True(t, fixed.Possible)
	assert.Equal(t, 0.3, fixed.RequiredWidthM)
	assert.Equal(t, 0.3, fixed.AvailableWidthM)
}

func TestSuggestAdjustments_FeasibleCandidateGetsNone(t *testing.T) {
	suggestions, err := SuggestAdjustments(Bed{WidthM: 1, LengthM: 5}, nil, Candidate{RowCount: 2, RowSpacingCm: 30})
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestAdjustments_SpacingFloor(t *testing.T) {
	bed := Bed{WidthM: 1.0, LengthM: 10}
	existing := []Planting{{RowCount: 2, RowSpacingCm: 20}}

	tests := []struct {
		name      string
		candidate Candidate
		expected  []Suggestion
	}{
		{
			name:      "spacing reduced to widest fitting value",
			candidate: Candidate{RowCount: 4, RowSpacingCm: 25, MinRowSpacingCm: floatPtr(15)},
			expected: []Suggestion{
				{Kind: ReduceRowCount, RowCount: 3, Recommended: true},
				{Kind: ReduceSpacing, RowSpacingCm: 20},
			},
		},
		{
			name:      "floor too high for spacing repair",
			candidate: Candidate{RowCount: 4, RowSpacingCm: 25, MinRowSpacingCm: floatPtr(22)},
			expected: []Suggestion{
				{Kind: ReduceRowCount, RowCount: 3, Recommended: true},
			},
		},
		{
			name:      "no floor supplied",
			candidate: Candidate{RowCount: 4, RowSpacingCm: 25},
			expected: []Suggestion{
				{Kind: ReduceRowCount, RowCount: 3, Recommended: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SuggestAdjustments(bed, existing, tt.candidate)
			require.NoError(t, err)

			ignoreMessage := cmp.FilterPath(func(p cmp.Path) bool {
				return p.Last().String() == ".Message"
			}, cmp.Ignore())
			if diff := cmp.Diff(tt.expected, got, ignoreMessage); diff != "" {
				t.Errorf("SuggestAdjustments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSuggestAdjustments_LengthOnly(t *testing.T) {
	bed := Bed{WidthM: 1.2, LengthM: 8}
	candidate := Candidate{RowCount: 2, RowSpacingCm: 30, LengthM: floatPtr(9.5)}

	got, err := SuggestAdjustments(bed, nil, candidate)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, ReduceLength, got[0].Kind)
	assert.Equal(t, 8.0, got[0].LengthM)
	assert.True(t, got[0].Recommended)
	assert.Equal(t, AxisLength, got[0].Kind.Axis())
}

func TestSuggestAdjustments_BothAxesNoneRecommended(t *testing.T) {
	bed := Bed{WidthM: 0.8, LengthM: 10}
	existing := []Planting{{RowCount: 2, RowSpacingCm: 30}}
	candidate := Candidate{RowCount: 3, RowSpacingCm: 30, LengthM: floatPtr(12)}

	got, err := SuggestAdjustments(bed, existing, candidate)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, ReduceRowCount, got[0].Kind)
	assert.Equal(t, ReduceLength, got[1].Kind)
	for _, s := range got {
		assert.False(t, s.Recommended)
	}
}

func TestSuggestAdjustments_OverfullBedHasNoWidthRepair(t *testing.T) {
	bed := Bed{WidthM: 0.5, LengthM: 10}
	existing := []Planting{{RowCount: 3, RowSpacingCm: 30}}

	got, err := SuggestAdjustments(bed, existing, Candidate{RowCount: 2, RowSpacingCm: 20, MinRowSpacingCm: floatPtr(5)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggestAdjustments_Idempotent(t *testing.T) {
	bed := Bed{WidthM: 1.1, LengthM: 6}
	existing := []Planting{{RowCount: 3, RowSpacingCm: 20}}
	candidate := Candidate{RowCount: 5, RowSpacingCm: 30, LengthM: floatPtr(7), MinRowSpacingCm: floatPtr(10)}

	first, err := SuggestAdjustments(bed, existing, candidate)
	require.NoError(t, err)
	second, err := SuggestAdjustments(bed, existing, candidate)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(first), MaxSuggestions)
}

func TestSuggestAdjustments_EverySuggestionFixesItsAxis(t *testing.T) {
	property := func(seed int64) bool {
		rng := rand.New(rand.NewSource(seed))
		bed := Bed{WidthM: float64(40+rng.Intn(200)) / 100, LengthM: float64(1 + rng.Intn(20))}

		var existing []Planting
		for i, n := 0, rng.Intn(3); i < n; i++ {
			existing = append(existing, Planting{RowCount: 1 + rng.Intn(3), RowSpacingCm: float64(10 + rng.Intn(30))})
		}
		candidate := Candidate{
			RowCount:        1 + rng.Intn(8),
			RowSpacingCm:    float64(10+rng.Intn(60)) + 0.5*float64(rng.Intn(2)),
			LengthM:         floatPtr(float64(1 + rng.Intn(25))),
			MinRowSpacingCm: floatPtr(float64(5 + rng.Intn(20))),
		}

		suggestions, err := SuggestAdjustments(bed, existing, candidate)
		if err != nil || len(suggestions) > MaxSuggestions {
			return false
		}
		recommended := 0
		for _, s := range suggestions {
			res, err := ValidateCapacity(bed, existing, s.Apply(candidate))
			if err != nil || res.Fails(s.Kind.Axis()) {
				return false
			}
			if s.Recommended {
				recommended++
				if !res.Possible {
					return false
				}
			}
		}
		return recommended <= 1
	}
	require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 500}))
}
