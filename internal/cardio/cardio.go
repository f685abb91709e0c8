package cardio

import (
	"fmt"
	"time"
)

type TimeRange string

const (
	RangeWeek        TimeRange = "week"
	RangeThreeMonths TimeRange = "threeMonths"
	RangeSixMonths   TimeRange = "sixMonths"
)

var AllRanges = []TimeRange{RangeWeek, RangeThreeMonths, RangeSixMonths}

func (r TimeRange) String() string {
	return string(r)
}

func (r TimeRange) IsValid() bool {
	switch r {
	case RangeWeek, RangeThreeMonths, RangeSixMonths:
		return true
	default:
		return false
	}
}

func ParseTimeRange(s string) (TimeRange, error) {
	r := TimeRange(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown time range: %q", s)
	}
	return r, nil
}

// Focus is the metric being charted.
type Focus string

const (
	FocusActiveMinutes Focus = "activeMinutes"
	FocusDistance      Focus = "distance"
	FocusCalories      Focus = "calories"
	FocusSteps         Focus = "steps"
)

var AllFocuses = []Focus{FocusActiveMinutes, FocusDistance, FocusCalories, FocusSteps}

func (f Focus) String() string {
	return string(f)
}

func (f Focus) IsValid() bool {
	switch f {
	case FocusActiveMinutes, FocusDistance, FocusCalories, FocusSteps:
		return true
	default:
		return false
	}
}

func ParseFocus(s string) (Focus, error) {
	f := Focus(s)
	if !f.IsValid() {
		return "", fmt.Errorf("unknown focus: %q", s)
	}
	return f, nil
}

// Select returns the bucket total charted for the focus.
func (f Focus) Select(b Bucket) float64 {
	switch f {
	case FocusActiveMinutes:
		return b.Totals.Minutes
	case FocusDistance:
		return b.Totals.DistanceKm
	case FocusCalories:
		return b.Totals.Calories
	case FocusSteps:
		return b.Totals.Steps
	default:
		return 0
	}
}

type WorkoutSummary struct {
	ID               string    `json:"id"`
	Activity         string    `json:"activity"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	DurationMinutes  float64   `json:"durationMinutes"`
	DistanceKm       float64   `json:"distanceKm,omitempty"`
	Calories         float64   `json:"calories,omitempty"`
	Steps            float64   `json:"steps,omitempty"`
	AverageHeartRate float64   `json:"averageHeartRate,omitempty"`
	Source           string    `json:"source,omitempty"`
}

// AggregatedData is the per-range dataset. Current and Previous always have
// the same length and pairwise-equal bucket durations.
type AggregatedData struct {
	Range    TimeRange `json:"range"`
	Current  []Bucket  `json:"current"`
	Previous []Bucket  `json:"previous"`
}

// Workouts returns every workout of the dataset, previous buckets first.
func (d *AggregatedData) Workouts() []WorkoutSummary {
	var workouts []WorkoutSummary
	for _, b := range d.Previous {
		workouts = append(workouts, b.Workouts...)
	}
	for _, b := range d.Current {
		workouts = append(workouts, b.Workouts...)
	}
	return workouts
}

type CardioKpi struct {
	Key            Focus   `json:"key"`
	Title          string  `json:"title"`
	Unit           string  `json:"unit,omitempty"`
	Value          string  `json:"value"`
	CurrentNumeric float64 `json:"currentNumeric"`
	Previous       float64 `json:"previous"`
	Trend          Trend   `json:"trend"`
}

type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type CardioSeriesResponse struct {
	Focus    Focus         `json:"focus"`
	Current  []SeriesPoint `json:"current"`
	Previous []SeriesPoint `json:"previous,omitempty"`
}

type SeriesOptions struct {
	// Compare set to false suppresses the previous period. Nil means compare.
	Compare *bool
}

func (o SeriesOptions) includePrevious() bool {
	return o.Compare == nil || *o.Compare
}

type CardioBest struct {
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	Metric Focus     `json:"metric"`
	Value  string    `json:"value"`
	Date   time.Time `json:"date"`
	Detail string    `json:"detail,omitempty"`
}

type CardioTargetLine struct {
	Focus Focus   `json:"focus"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// CardioProgressSnapshot is the full read model handed to a progress screen.
type CardioProgressSnapshot struct {
	Range      TimeRange                      `json:"range"`
	Series     map[Focus]CardioSeriesResponse `json:"series"`
	Kpis       []CardioKpi                    `json:"kpis"`
	Workouts   map[string][]WorkoutSummary    `json:"workouts"`
	Bests      []CardioBest                   `json:"bests"`
	TargetLine *CardioTargetLine              `json:"targetLine"`
}
