package health

import (
	"context"
	"time"
)

// Capability is a read scope requested from the platform health service.
type Capability string

const (
	CapabilityWorkouts  Capability = "workouts"
	CapabilityDistance  Capability = "distance"
	CapabilityCalories  Capability = "calories"
	CapabilityHeartRate Capability = "heartRate"
	CapabilitySteps     Capability = "steps"
)

// ReadCapabilities is the minimal scope set the cardio ingestion needs.
var ReadCapabilities = []Capability{
	CapabilityWorkouts,
	CapabilityDistance,
	CapabilityCalories,
	CapabilityHeartRate,
	CapabilitySteps,
}

type DailyMetric string

const (
	DailyMetricSteps          DailyMetric = "steps"
	DailyMetricActiveCalories DailyMetric = "active-calories"
)

func (m DailyMetric) IsValid() bool {
	return m == DailyMetricSteps || m == DailyMetricActiveCalories
}

// RawRecord is a loosely typed payload exactly as the platform returned it.
type RawRecord map[string]any

//go:generate mockgen -source=$GOFILE -destination=healthmock/provider_mock.go -package=healthmock

// PlatformHealthProvider is the narrow surface of a platform health service.
type PlatformHealthProvider interface {
	// RequestPermissions fails with ErrPermissionDenied or ErrProviderUnavailable.
	RequestPermissions(ctx context.Context, scopes []Capability) error
	QueryWorkoutSessions(ctx context.Context, start, end time.Time) ([]RawRecord, error)
	QueryDailyAggregate(ctx context.Context, metric DailyMetric, start, end time.Time) ([]RawRecord, error)
}

type SessionPage struct {
	Records []RawRecord
	// NextPageToken is empty on the last page.
	NextPageToken string
}

// PagedProvider is implemented by providers that can serve workout sessions page by page.
type PagedProvider interface {
	PlatformHealthProvider
	QueryWorkoutSessionsPage(ctx context.Context, start, end time.Time, pageToken string, pageSize int) (SessionPage, error)
}
