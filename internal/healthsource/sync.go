package healthsource

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio/health"
)

var ErrInvalidSync = errors.New("invalid sync request")

// SyncSession is one workout session as the device read it from its platform
// health service. EndTime is the session end the app already parsed, so the
// store can filter without understanding the payload dialect.
type SyncSession struct {
	ID      string           `json:"id"`
	EndTime time.Time        `json:"endTime"`
	Payload health.RawRecord `json:"payload"`
}

func (s SyncSession) externalID() string {
	if s.ID != "" {
		return s.ID
	}
	return "end-" + strconv.FormatInt(s.EndTime.UnixMilli(), 10)
}

type SyncDaily struct {
	Metric health.DailyMetric `json:"metric"`
	// Day is the local calendar day, YYYY-MM-DD.
	Day     string           `json:"day"`
	Payload health.RawRecord `json:"payload"`
}

type SyncRequest struct {
	Platform string              `json:"platform"`
	Grants   []health.Capability `json:"grants"`
	Revoked  []health.Capability `json:"revoked"`
	Sessions []SyncSession       `json:"sessions"`
	Daily    []SyncDaily         `json:"daily"`
}

type SyncResult struct {
	Platform health.Platform `json:"platform"`
	Grants   int             `json:"grants"`
	Sessions int             `json:"sessions"`
	Daily    int             `json:"daily"`
}

// Validate checks the upload and returns the platform it was read from.
func (r SyncRequest) Validate() (health.Platform, error) {
	platform := health.ParsePlatform(r.Platform)
	if platform == health.PlatformUnsupported {
		return "", fmt.Errorf("%w: unsupported platform %q", ErrInvalidSync, r.Platform)
	}
	for i, session := range r.Sessions {
		if session.EndTime.IsZero() {
			return "", fmt.Errorf("%w: session %d has no end time", ErrInvalidSync, i)
		}
		if session.Payload == nil {
			return "", fmt.Errorf("%w: session %d has no payload", ErrInvalidSync, i)
		}
	}
	for i, daily := range r.Daily {
		if !daily.Metric.IsValid() {
			return "", fmt.Errorf("%w: daily row %d has unknown metric %q", ErrInvalidSync, i, daily.Metric)
		}
		if _, err := time.Parse(dayLayout, daily.Day); err != nil {
			return "", fmt.Errorf("%w: daily row %d has invalid day %q", ErrInvalidSync, i, daily.Day)
		}
		if daily.Payload == nil {
			return "", fmt.Errorf("%w: daily row %d has no payload", ErrInvalidSync, i)
		}
	}
	return platform, nil
}
