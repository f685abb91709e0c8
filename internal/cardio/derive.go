package cardio

import (
	"slices"
	"time"
)

const (
	MaxRecentWorkouts    = 6
	TargetMinutes        = 40
	targetMinutesUnit    = "minutes"
	bestLongestDistance  = "Longest Distance"
	bestHighestCalories  = "Highest Calorie Burn"
	bestLongestSession   = "Longest Session"
	bestIDSuffixDistance = "-distance"
	bestIDSuffixCalories = "-calories"
	bestIDSuffixDuration = "-duration"
)

type kpiDefinition struct {
	key     Focus
	title   string
	unit    string
	display func(float64) string
}

var kpiDefinitions = []kpiDefinition{
	{
		key:     FocusActiveMinutes,
		title:   "Total Time",
		unit:    "minutes",
		display: MinutesToDisplay,
	},
	{
		key:   FocusDistance,
		title: "Distance",
		unit:  "km",
		display: func(v float64) string {
			return KilometersToDisplay(v) + " km"
		},
	},
	{
		key:   FocusCalories,
		title: "Calories",
		unit:  "kcal",
		display: func(v float64) string {
			return CaloriesToDisplay(v) + " kcal"
		},
	},
	{
		key:     FocusSteps,
		title:   "Steps",
		display: StepsToDisplay,
	},
}

func sumFocus(buckets []Bucket, focus Focus) float64 {
	var sum float64
	for _, b := range buckets {
		sum += focus.Select(b)
	}
	return sum
}

func seriesPoints(buckets []Bucket, value func(Bucket) float64) []SeriesPoint {
	points := make([]SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, SeriesPoint{Date: b.Start, Value: value(b)})
	}
	return points
}

// SeriesFrom charts one focus over every bucket of the dataset.
func SeriesFrom(data *AggregatedData, focus Focus, opts SeriesOptions) CardioSeriesResponse {
	resp := CardioSeriesResponse{
		Focus:   focus,
		Current: seriesPoints(data.Current, focus.Select),
	}
	if opts.includePrevious() {
		resp.Previous = seriesPoints(data.Previous, focus.Select)
	}
	return resp
}

// KpisFrom rolls every focus up over the current and previous buckets.
func KpisFrom(data *AggregatedData) []CardioKpi {
	kpis := make([]CardioKpi, 0, len(kpiDefinitions))
	for _, def := range kpiDefinitions {
		current := sumFocus(data.Current, def.key)
		previous := sumFocus(data.Previous, def.key)
		kpis = append(kpis, CardioKpi{
			Key:            def.key,
			Title:          def.title,
			Unit:           def.unit,
			Value:          def.display(current),
			CurrentNumeric: current,
			Previous:       previous,
			Trend:          DetermineTrend(current, previous),
		})
	}
	return kpis
}

func byEndDesc(a, b WorkoutSummary) int {
	return b.End.Compare(a.End)
}

// currentWindowWorkouts returns workouts that ended inside the current
// window, latest first.
func currentWindowWorkouts(data *AggregatedData) []WorkoutSummary {
	workouts := make([]WorkoutSummary, 0)
	if len(data.Current) == 0 {
		return workouts
	}

	windowStart := data.Current[0].Start
	windowEnd := data.Current[len(data.Current)-1].End
	for _, w := range data.Workouts() {
		if w.End.Before(windowStart) || w.End.After(windowEnd) {
			continue
		}
		workouts = append(workouts, w)
	}
	slices.SortStableFunc(workouts, byEndDesc)
	return workouts
}

func RecentWorkoutsFrom(data *AggregatedData) []WorkoutSummary {
	workouts := currentWindowWorkouts(data)
	if len(workouts) > MaxRecentWorkouts {
		workouts = workouts[:MaxRecentWorkouts]
	}
	return workouts
}

// GroupWorkoutsByDate keys workouts by their local start date, each day
// sorted by start time, latest first.
func GroupWorkoutsByDate(workouts []WorkoutSummary) map[string][]WorkoutSummary {
	grouped := make(map[string][]WorkoutSummary)
	for _, w := range workouts {
		day := w.Start
		if day.IsZero() {
			day = w.End
		}
		if day.IsZero() {
			continue
		}
		key := DateKey(day)
		grouped[key] = append(grouped[key], w)
	}

	for _, dayWorkouts := range grouped {
		slices.SortStableFunc(dayWorkouts, func(a, b WorkoutSummary) int {
			return b.Start.Compare(a.Start)
		})
	}
	return grouped
}

// BestsFrom picks the personal bests among the workouts of the current window.
func BestsFrom(data *AggregatedData) []CardioBest {
	workouts := currentWindowWorkouts(data)
	bests := make([]CardioBest, 0, 3)
	if len(workouts) == 0 {
		return bests
	}

	var longestDistance, topCalories *WorkoutSummary
	longestSession := &workouts[0]
	for i := range workouts {
		w := &workouts[i]
		if w.DistanceKm > 0 && (longestDistance == nil || longestDistance.DistanceKm < w.DistanceKm) {
			longestDistance = w
		}
		if w.Calories > 0 && (topCalories == nil || topCalories.Calories < w.Calories) {
			topCalories = w
		}
		if longestSession.DurationMinutes < w.DurationMinutes {
			longestSession = w
		}
	}

	if longestDistance != nil {
		bests = append(bests, newBest(longestDistance, bestIDSuffixDistance, bestLongestDistance,
			FocusDistance, KilometersToDisplay(longestDistance.DistanceKm)+" km"))
	}
	if topCalories != nil {
		bests = append(bests, newBest(topCalories, bestIDSuffixCalories, bestHighestCalories,
			FocusCalories, CaloriesToDisplay(topCalories.Calories)+" kcal"))
	}
	bests = append(bests, newBest(longestSession, bestIDSuffixDuration, bestLongestSession,
		FocusActiveMinutes, MinutesToDisplay(longestSession.DurationMinutes)))

	return bests
}

func newBest(w *WorkoutSummary, idSuffix, label string, metric Focus, value string) CardioBest {
	return CardioBest{
		ID:     w.ID + idSuffix,
		Label:  label,
		Metric: metric,
		Value:  value,
		Date:   w.Start,
		Detail: NormalizeActivityName(w.Activity),
	}
}

// TargetLineFor returns the daily goal drawn on a focus chart, nil when the
// focus has none.
func TargetLineFor(focus Focus) *CardioTargetLine {
	if focus != FocusActiveMinutes {
		return nil
	}
	return &CardioTargetLine{
		Focus: focus,
		Value: TargetMinutes,
		Unit:  targetMinutesUnit,
	}
}

func SnapshotFrom(data *AggregatedData) CardioProgressSnapshot {
	series := make(map[Focus]CardioSeriesResponse, len(AllFocuses))
	for _, focus := range AllFocuses {
		series[focus] = SeriesFrom(data, focus, SeriesOptions{})
	}

	return CardioProgressSnapshot{
		Range:      data.Range,
		Series:     series,
		Kpis:       KpisFrom(data),
		Workouts:   GroupWorkoutsByDate(data.Workouts()),
		Bests:      BestsFrom(data),
		TargetLine: TargetLineFor(FocusActiveMinutes),
	}
}

// NewAggregatedData builds a zeroed dataset for the range as of now.
func NewAggregatedData(r TimeRange, now time.Time) *AggregatedData {
	sets := BuildBucketSets(r, now)
	return &AggregatedData{
		Range:    r,
		Current:  sets.Current,
		Previous: sets.Previous,
	}
}
