package ingest

import (
	"fmt"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio"
	"github.com/2beens/cardioprogress/internal/cardio/health"
)

// NewIOSAdapter reads HealthKit shaped records: workouts with startDate and
// endDate, duration in seconds, distance in meters and embedded heartRate samples.
func NewIOSAdapter(params Params) Adapter {
	p := newPipeline(health.PlatformIOSLike, "ingest.ios.populate", params)
	p.normalizeSession = normalizeIOSSession
	p.normalizeDaily = normalizeIOSDaily
	return p
}

func normalizeIOSSession(rec health.RawRecord, loc *time.Location) (session, error) {
	start, end, err := sessionTimes(rec, loc, []string{"startDate", "startTime"}, []string{"endDate", "endTime"})
	if err != nil {
		return session{}, err
	}

	s := session{
		id:       asString(rec["id"]),
		activity: cardio.NormalizeActivityName(asString(first(rec, "workoutType", "activityName"))),
		start:    start,
		end:      end,
		calories: cardio.SafeNumber(first(rec, "calories", "totalEnergyBurned")),
		steps:    cardio.SafeNumber(rec["steps"]),
		source:   asString(rec["sourceName"]),
	}
	if s.id == "" {
		s.id = fmt.Sprintf("ios-%d", end.UnixMilli())
	}

	if seconds := cardio.SafeNumber(rec["duration"]); seconds > 0 {
		s.durationMinutes = seconds / 60
	} else {
		s.durationMinutes = end.Sub(start).Minutes()
	}

	if meters := cardio.SafeNumber(rec["distance"]); meters > 0 {
		s.distanceKm, _ = cardio.DistanceToKm(meters, "m")
	}

	s.heartRateSum, s.heartRateCount = heartRateSamples(rec["heartRate"], "bpm", "beatsPerMinute")
	return s, nil
}

func normalizeIOSDaily(_ health.DailyMetric, rec health.RawRecord, loc *time.Location) (dailyRow, error) {
	date, err := dailyDate(rec, loc, "startDate", "date")
	if err != nil {
		return dailyRow{}, err
	}
	return dailyRow{date: date, value: cardio.SafeNumber(rec["value"])}, nil
}
