package cardio

import (
	"time"
)

const (
	weekBucketCount        = 7
	threeMonthsBucketCount = 12
	sixMonthsBucketCount   = 6
)

type BucketTotals struct {
	Minutes        float64 `json:"minutes"`
	DistanceKm     float64 `json:"distanceKm"`
	Calories       float64 `json:"calories"`
	Steps          float64 `json:"steps"`
	HeartRateSum   float64 `json:"heartRateSum"`
	HeartRateCount int     `json:"heartRateCount"`
}

// Bucket accumulates totals and workouts for the inclusive interval [Start, End].
type Bucket struct {
	Start    time.Time        `json:"start"`
	End      time.Time        `json:"end"`
	Totals   BucketTotals     `json:"totals"`
	Workouts []WorkoutSummary `json:"workouts"`
}

func (b *Bucket) Contains(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}

// AverageHeartRate derives the mean of all heart-rate readings folded into the bucket.
func (b *Bucket) AverageHeartRate() (float64, bool) {
	if b.Totals.HeartRateCount <= 0 {
		return 0, false
	}
	return b.Totals.HeartRateSum / float64(b.Totals.HeartRateCount), true
}

type BucketSets struct {
	Current  []Bucket
	Previous []Bucket
}

// Window returns the overall span covered by both sets: the earliest previous
// bucket start and the latest current bucket end.
func (s BucketSets) Window() (time.Time, time.Time) {
	if len(s.Current) == 0 {
		return time.Time{}, time.Time{}
	}
	start := s.Current[0].Start
	if len(s.Previous) > 0 {
		start = s.Previous[0].Start
	}
	return start, s.Current[len(s.Current)-1].End
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// BuildBuckets lays out the buckets of a range ending with the one that contains asOf.
// Buckets use asOf's location for day and month boundaries.
func BuildBuckets(r TimeRange, asOf time.Time) []Bucket {
	switch r {
	case RangeWeek:
		return dayStepBuckets(asOf, weekBucketCount, 1)
	case RangeThreeMonths:
		return dayStepBuckets(asOf, threeMonthsBucketCount, 7)
	case RangeSixMonths:
		return monthBuckets(asOf, sixMonthsBucketCount)
	default:
		return nil
	}
}

// dayStepBuckets clamps asOf to end of day and lays count buckets of stepDays
// backwards from it.
func dayStepBuckets(asOf time.Time, count, stepDays int) []Bucket {
	loc := asOf.Location()
	y, m, d := asOf.Date()
	firstDay := d - (count*stepDays - 1)

	buckets := make([]Bucket, 0, count)
	for i := 0; i < count; i++ {
		startDay := firstDay + i*stepDays
		buckets = append(buckets, Bucket{
			Start: time.Date(y, m, startDay, 0, 0, 0, 0, loc),
			End:   EndOfDay(time.Date(y, m, startDay+stepDays-1, 12, 0, 0, 0, loc)),
		})
	}
	return buckets
}

func monthBuckets(asOf time.Time, count int) []Bucket {
	loc := asOf.Location()
	y, m, _ := asOf.Date()

	buckets := make([]Bucket, 0, count)
	for i := 0; i < count; i++ {
		month := m - time.Month(count-1-i)
		// day 0 of the following month is the last day of this one
		lastDay := time.Date(y, month+1, 0, 12, 0, 0, 0, loc)
		buckets = append(buckets, Bucket{
			Start: time.Date(y, month, 1, 0, 0, 0, 0, loc),
			End:   EndOfDay(lastDay),
		})
	}
	return buckets
}

// BuildBucketSets builds the current buckets as of now, and the previous
// buckets covering the equal-length window that ends right before them.
func BuildBucketSets(r TimeRange, now time.Time) BucketSets {
	current := BuildBuckets(r, now)
	if len(current) == 0 {
		return BucketSets{}
	}

	previousEnd := EndOfDay(current[0].Start.AddDate(0, 0, -1))
	return BucketSets{
		Current:  current,
		Previous: BuildBuckets(r, previousEnd),
	}
}

// FindBucket returns the bucket whose inclusive interval contains t, or nil.
func FindBucket(buckets []Bucket, t time.Time) *Bucket {
	for i := range buckets {
		if buckets[i].Contains(t) {
			return &buckets[i]
		}
	}
	return nil
}
