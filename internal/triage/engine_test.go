package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func daysAgo(d int) *time.Time { return timePtr(now.AddDate(0, 0, -d)) }

func TestClassify_NeverWatered(t *testing.T) {
	engine := New(DefaultThresholds())

	c := engine.Classify(Subject{
		PlantingID:     1,
		PlantingDate:   now.AddDate(0, 0, -3),
		WaterNeedLevel: intPtr(3),
	}, now)

	assert.Equal(t, TierNever, c.Tier)
	assert.Nil(t, c.DaysSinceWatered)
	assert.False(t, c.Unclassified)
}

func TestClassify_HighNeedReachesCritiqueEarly(t *testing.T) {
	engine := New(DefaultThresholds())

	high := engine.Classify(Subject{PlantingDate: now.AddDate(0, -2, 0), LastWateredAt: daysAgo(4), WaterNeedLevel: intPtr(5)}, now)
	low := engine.Classify(Subject{PlantingDate: now.AddDate(0, -2, 0), LastWateredAt: daysAgo(4), WaterNeedLevel: intPtr(1)}, now)

	require.NotNil(t, high.DaysSinceWatered)
	assert.Equal(t, 4, *high.DaysSinceWatered)
	assert.Equal(t, TierCritique, high.Tier)
	assert.Equal(t, TierFaible, low.Tier)
}

func TestClassify_TierTable(t *testing.T) {
	engine := New(DefaultThresholds())

	tests := []struct {
		name     string
		level    int
		days     int
		expected Tier
	}{
		{name: "watered today", level: 3, days: 0, expected: TierFaible},
		{name: "medium need at moyenne", level: 3, days: 3, expected: TierMoyenne},
		{name: "medium need at haute", level: 3, days: 5, expected: TierHaute},
		{name: "medium need at critique", level: 3, days: 7, expected: TierCritique},
		{name: "low need long dry spell", level: 1, days: 13, expected: TierHaute},
		{name: "high need one day", level: 5, days: 1, expected: TierMoyenne},
		{name: "high need two days", level: 5, days: 2, expected: TierHaute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := engine.Classify(Subject{PlantingDate: now.AddDate(0, -1, 0), LastWateredAt: daysAgo(tt.days), WaterNeedLevel: intPtr(tt.level)}, now)
			assert.Equal(t, tt.expected, c.Tier)
		})
	}
}

func TestClassify_UrgencyMonotonicInDays(t *testing.T) {
	engine := New(DefaultThresholds())

	for level := 1; level <= 5; level++ {
		prev := TierNever.Rank()
		for days := 30; days >= 0; days-- {
			c := engine.Classify(Subject{PlantingDate: now.AddDate(-1, 0, 0), LastWateredAt: daysAgo(days), WaterNeedLevel: intPtr(level)}, now)
			require.LessOrEqual(t, c.Tier.Rank(), prev, "level %d day %d", level, days)
			prev = c.Tier.Rank()
		}
	}
}

func TestClassify_UnknownLevelIsUnclassified(t *testing.T) {
	engine := New(DefaultThresholds())

	tests := []struct {
		name  string
		level *int
	}{
		{name: "missing level", level: nil},
		{name: "out of scale level", level: intPtr(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := engine.Classify(Subject{
				PlantingDate:   now.AddDate(0, -1, 0),
				LastWateredAt:  daysAgo(20),
				WaterNeedLevel: tt.level,
				SurfaceM2:      2,
			}, now)

			assert.Equal(t, TierFaible, c.Tier)
			assert.True(t, c.Unclassified)
			assert.Equal(t, 10.0, c.WeeklyConsumptionEstimateL, "falls back to the lowest level rate")
		})
	}
}

func TestClassify_AgeAndYoungFlag(t *testing.T) {
	engine := New(DefaultThresholds())

	young := engine.Classify(Subject{PlantingDate: now.AddDate(0, 0, -20), LastWateredAt: daysAgo(1), WaterNeedLevel: intPtr(2)}, now)
	established := engine.Classify(Subject{PlantingDate: now.AddDate(0, 0, -21), LastWateredAt: daysAgo(1), WaterNeedLevel: intPtr(2)}, now)
	future := engine.Classify(Subject{PlantingDate: now.AddDate(0, 0, 5), WaterNeedLevel: intPtr(2)}, now)

	assert.Equal(t, 20, young.AgeDays)
	assert.True(t, young.IsYoung)
	assert.Equal(t, 21, established.AgeDays)
	assert.False(t, established.IsYoung)
	assert.Equal(t, 0, future.AgeDays)
}

func TestClassify_WeeklyConsumption(t *testing.T) {
	engine := New(DefaultThresholds())

	c := engine.Classify(Subject{PlantingDate: now, WaterNeedLevel: intPtr(4), SurfaceM2: 3.5}, now)

	assert.Equal(t, 70.0, c.WeeklyConsumptionEstimateL)
}

func TestUpcoming(t *testing.T) {
	engine := New(DefaultThresholds())
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	events := []Event{
		{PlannedDate: today},                                 // today, counts
		{PlannedDate: today.AddDate(0, 0, 3)},                // in window
		{PlannedDate: today.AddDate(0, 0, 3), Done: true},    // done
		{PlannedDate: today.AddDate(0, 0, -1)},               // overdue, before window
		{PlannedDate: today.AddDate(0, 0, 7)},                // within now+7d
		{PlannedDate: today.AddDate(0, 0, 8)},                // after window
	}

	assert.Equal(t, 3, engine.Upcoming(events, now))

	c := engine.Classify(Subject{PlantingDate: today, Events: events}, now)
	assert.Equal(t, 3, c.UpcomingCount)
}

func TestUpcoming_IndependentOfTimeZone(t *testing.T) {
	engine := New(DefaultThresholds())
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	events := []Event{{PlannedDate: today}, {PlannedDate: today.AddDate(0, 0, 2)}}

	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC+14", 14*60*60),
		time.FixedZone("UTC-10", -10*60*60),
	}
	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			assert.Equal(t, 2, engine.Upcoming(events, now.In(loc)))
		})
	}
}

func TestClassifyAll(t *testing.T) {
	engine := New(DefaultThresholds())
	subjects := []Subject{
		{PlantingID: 1, PlantingDate: now},
		{PlantingID: 2, PlantingDate: now, LastWateredAt: daysAgo(2), WaterNeedLevel: intPtr(5)},
	}

	got := engine.ClassifyAll(subjects, now)

	require.Len(t, got, 2)
	assert.Equal(t, uint(1), got[0].PlantingID)
	assert.Equal(t, TierNever, got[0].Tier)
	assert.Equal(t, TierHaute, got[1].Tier)
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	unordered := DefaultThresholds()
	unordered.Levels[3] = LevelThresholds{Moyenne: 5, Haute: 3, Critique: 7}
	assert.ErrorIs(t, unordered.Validate(), ErrInvalidThresholds)

	inverted := DefaultThresholds()
	inverted.Levels[5] = LevelThresholds{Moyenne: 8, Haute: 9, Critique: 20}
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidThresholds)

	assert.ErrorIs(t, Thresholds{}.Validate(), ErrInvalidThresholds)
}
