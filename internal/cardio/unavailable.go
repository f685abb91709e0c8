package cardio

import (
	"time"
)

// The unavailable read models share the exact shape of populated ones and
// differ only in values: zeros, "N/A" and empty workout lists.

func zeroPoints(buckets []Bucket) []SeriesPoint {
	return seriesPoints(buckets, func(Bucket) float64 { return 0 })
}

func UnavailableSeries(sets BucketSets, focus Focus, opts SeriesOptions) CardioSeriesResponse {
	resp := CardioSeriesResponse{
		Focus:   focus,
		Current: zeroPoints(sets.Current),
	}
	if opts.includePrevious() {
		resp.Previous = zeroPoints(sets.Previous)
	}
	return resp
}

func UnavailableKpis() []CardioKpi {
	kpis := make([]CardioKpi, 0, len(kpiDefinitions))
	for _, def := range kpiDefinitions {
		kpis = append(kpis, CardioKpi{
			Key:   def.key,
			Title: def.title,
			Unit:  def.unit,
			Value: UnavailableValue,
			Trend: DetermineTrend(0, 0),
		})
	}
	return kpis
}

func UnavailableWorkouts() []WorkoutSummary {
	return make([]WorkoutSummary, 0)
}

func UnavailableSnapshot(r TimeRange, now time.Time) CardioProgressSnapshot {
	sets := BuildBucketSets(r, now)
	series := make(map[Focus]CardioSeriesResponse, len(AllFocuses))
	for _, focus := range AllFocuses {
		series[focus] = UnavailableSeries(sets, focus, SeriesOptions{})
	}

	return CardioProgressSnapshot{
		Range:      r,
		Series:     series,
		Kpis:       UnavailableKpis(),
		Workouts:   make(map[string][]WorkoutSummary),
		Bests:      make([]CardioBest, 0),
		TargetLine: TargetLineFor(FocusActiveMinutes),
	}
}
