package healthsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"github.com/tormoder/fit"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	fitSourceName = "fit"

	invalidUint8  = 0xFF
	invalidUint16 = 0xFFFF
	invalidUint32 = 0xFFFFFFFF
)

var _ health.PlatformHealthProvider = (*FitSource)(nil)

// FitSource reads workout sessions from a directory of FIT activity files,
// as exported by most watches and bike computers. It speaks the iOS dialect.
type FitSource struct {
	dir    string
	logger log.FieldLogger
}

func NewFitSource(dir string, logger log.FieldLogger) *FitSource {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &FitSource{
		dir:    dir,
		logger: logger.WithField("source", fitSourceName),
	}
}

func (s *FitSource) RequestPermissions(_ context.Context, _ []health.Capability) error {
	info, err := os.Stat(s.dir)
	if err != nil || !info.IsDir() {
		return health.ErrProviderUnavailable
	}
	return nil
}

func (s *FitSource) QueryWorkoutSessions(ctx context.Context, start, end time.Time) (_ []health.RawRecord, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "healthsource.fit.queryWorkoutSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, health.ErrProviderUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("read fit dir: %w", err)
	}

	var records []health.RawRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".fit") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.dir, entry.Name())
		sessions, err := decodeFitSessions(path)
		if err != nil {
			s.logger.WithField("file", entry.Name()).Warnf("skipping unreadable fit file: %s", err)
			continue
		}
		for _, rec := range sessions {
			endTime := rec["endDate"].(string)
			t, err := time.Parse(time.RFC3339, endTime)
			if err != nil || t.Before(start) || t.After(end) {
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// QueryDailyAggregate returns no rows, FIT activity files carry no daily
// totals. Ingestion then falls back to the session values.
func (s *FitSource) QueryDailyAggregate(_ context.Context, _ health.DailyMetric, _, _ time.Time) ([]health.RawRecord, error) {
	return []health.RawRecord{}, nil
}

func decodeFitSessions(path string) ([]health.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, err := fit.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity: %w", err)
	}

	records := make([]health.RawRecord, 0, len(activity.Sessions))
	for i, session := range activity.Sessions {
		if session.StartTime.IsZero() || session.Timestamp.Before(session.StartTime) {
			continue
		}
		records = append(records, sessionRecord(path, i, session, activity.Records))
	}
	return records, nil
}

func sessionRecord(path string, index int, session *fit.SessionMsg, samples []*fit.RecordMsg) health.RawRecord {
	start := session.StartTime.UTC()
	end := session.Timestamp.UTC()
	rec := health.RawRecord{
		"id":          fmt.Sprintf("fit-%s-%d", strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), index),
		"startDate":   start.Format(time.RFC3339),
		"endDate":     end.Format(time.RFC3339),
		"workoutType": fitActivityLabel(session.Sport, session.SubSport),
		"sourceName":  fitSourceName,
	}

	switch {
	case session.TotalElapsedTime != invalidUint32:
		rec["duration"] = float64(session.TotalElapsedTime) / 1000
	case session.TotalTimerTime != invalidUint32:
		rec["duration"] = float64(session.TotalTimerTime) / 1000
	}
	if session.TotalDistance != invalidUint32 {
		rec["distance"] = float64(session.TotalDistance) / 100
	}
	if session.TotalCalories != invalidUint16 {
		rec["calories"] = float64(session.TotalCalories)
	}

	var heartRate []any
	for _, sample := range samples {
		if sample.HeartRate == 0 || sample.HeartRate == invalidUint8 {
			continue
		}
		if sample.Timestamp.Before(session.StartTime) || sample.Timestamp.After(session.Timestamp) {
			continue
		}
		heartRate = append(heartRate, map[string]any{"bpm": float64(sample.HeartRate)})
	}
	if len(heartRate) == 0 && session.AvgHeartRate != 0 && session.AvgHeartRate != invalidUint8 {
		heartRate = append(heartRate, map[string]any{"bpm": float64(session.AvgHeartRate)})
	}
	if len(heartRate) > 0 {
		rec["heartRate"] = heartRate
	}

	return rec
}

// fitActivityLabel maps FIT sports onto the activity labels the app shows.
// Sports without a label of their own are title cased.
func fitActivityLabel(sport fit.Sport, subSport fit.SubSport) string {
	switch sport {
	case fit.SportRunning:
		if subSport == fit.SubSportTreadmill {
			return "Indoor Run"
		}
		return "Outdoor Run"
	case fit.SportWalking:
		if subSport == fit.SubSportTreadmill {
			return "Indoor Walk"
		}
		return "Outdoor Walk"
	case fit.SportCycling:
		return "Cycling"
	case fit.SportSwimming:
		return "Swimming"
	case fit.SportRowing:
		return "Rowing"
	case fit.SportFitnessEquipment:
		switch subSport {
		case fit.SubSportElliptical:
			return "Elliptical"
		case fit.SubSportIndoorRowing:
			return "Rowing"
		case fit.SubSportStairClimbing:
			return "Stair Stepper"
		case fit.SubSportIndoorCycling:
			return "Cycling"
		case fit.SubSportTreadmill:
			return "Indoor Run"
		}
	}
	return cases.Title(language.English).String(strings.ToLower(sport.String()))
}
