package triage

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ErrUnknownGroupKey is returned for an unsupported aggregation key
var ErrUnknownGroupKey = errors.New("unknown group key")

// GroupKey selects how classifications are grouped.
type GroupKey string

const (
	GroupByBed            GroupKey = "bed"
	GroupByIrrigationType GroupKey = "irrigation_type"
	GroupByUrgencyTier    GroupKey = "urgency_tier"
)

// ParseGroupKey validates a group key; an empty value groups by bed.
func ParseGroupKey(s string) (GroupKey, error) {
	switch GroupKey(s) {
	case "":
		return GroupByBed, nil
	case GroupByBed, GroupByIrrigationType, GroupByUrgencyTier:
		return GroupKey(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGroupKey, s)
}

// GroupSummary aggregates the plantings sharing one group value.
type GroupSummary struct {
	Key                string       `json:"key"`
	Plantings          int          `json:"plantings"`
	WeeklyConsumptionL float64      `json:"weekly_consumption_l"`
	UpcomingCount      int          `json:"upcoming_count"`
	CountByTier        map[Tier]int `json:"count_by_tier"`
	MostUrgent         Tier         `json:"most_urgent"`
}

// Totals aggregates every classification regardless of grouping.
type Totals struct {
	Plantings         int          `json:"plantings"`
	CountByTier       map[Tier]int `json:"count_by_tier"`
	NeverWatered      int          `json:"never_watered"`
	Unclassified      int          `json:"unclassified"`
	Young             int          `json:"young"`
	ProjectedEvents   int          `json:"projected_events"`
	TotalConsumptionL float64      `json:"total_consumption_l"`
}

// Summary is the grouped view plus global totals.
type Summary struct {
	GroupKey GroupKey       `json:"group_key"`
	Groups   []GroupSummary `json:"groups"`
	Totals   Totals         `json:"totals"`
}

// AggregateByGroup sums consumption and upcoming irrigations per group. Groups are
// ordered by key (by urgency for GroupByUrgencyTier) so equal input gives equal output.
func AggregateByGroup(classifications []Classification, key GroupKey) (Summary, error) {
	keyOf, err := keyFunc(key)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		GroupKey: key,
		Groups:   []GroupSummary{},
		Totals:   Totals{CountByTier: emptyTierCounts()},
	}
	groups := make(map[string]*GroupSummary)

	for _, c := range classifications {
		k := keyOf(c)
		g, ok := groups[k]
		if !ok {
			g = &GroupSummary{Key: k, CountByTier: emptyTierCounts()}
			groups[k] = g
		}
		g.Plantings++
		g.WeeklyConsumptionL += c.WeeklyConsumptionEstimateL
		g.UpcomingCount += c.UpcomingCount
		g.CountByTier[c.Tier]++
		if c.Tier.Rank() > g.MostUrgent.Rank() {
			g.MostUrgent = c.Tier
		}

		t := &summary.Totals
		t.Plantings++
		t.CountByTier[c.Tier]++
		t.ProjectedEvents += c.UpcomingCount
		t.TotalConsumptionL += c.WeeklyConsumptionEstimateL
		if c.Tier == TierNever {
			t.NeverWatered++
		}
		if c.Unclassified {
			t.Unclassified++
		}
		if c.IsYoung {
			t.Young++
		}
	}

	for _, g := range groups {
		g.WeeklyConsumptionL = roundLitres(g.WeeklyConsumptionL)
		summary.Groups = append(summary.Groups, *g)
	}
	summary.Totals.TotalConsumptionL = roundLitres(summary.Totals.TotalConsumptionL)

	sort.Slice(summary.Groups, func(i, j int) bool {
		a, b := summary.Groups[i], summary.Groups[j]
		if key == GroupByUrgencyTier {
			return Tier(a.Key).Rank() > Tier(b.Key).Rank()
		}
		if key == GroupByBed {
			ai, aerr := strconv.ParseUint(a.Key, 10, 64)
			bi, berr := strconv.ParseUint(b.Key, 10, 64)
			if aerr == nil && berr == nil {
				return ai < bi
			}
		}
		return a.Key < b.Key
	})

	return summary, nil
}

func keyFunc(key GroupKey) (func(Classification) string, error) {
	switch key {
	case GroupByBed:
		return func(c Classification) string { return strconv.FormatUint(uint64(c.BedID), 10) }, nil
	case GroupByIrrigationType:
		return func(c Classification) string {
			if c.IrrigationType == "" {
				return "unspecified"
			}
			return c.IrrigationType
		}, nil
	case GroupByUrgencyTier:
		return func(c Classification) string { return string(c.Tier) }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGroupKey, key)
}

func emptyTierCounts() map[Tier]int {
	counts := make(map[Tier]int, len(Tiers))
	for _, t := range Tiers {
		counts[t] = 0
	}
	return counts
}

func roundLitres(v float64) float64 {
	return math.Round(v*100) / 100
}
