package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/cardioprogress/internal/healthsource"

	log "github.com/sirupsen/logrus"
)

type healthStore interface {
	Sync(ctx context.Context, req healthsource.SyncRequest) (healthsource.SyncResult, error)
}

// SeedHealthData stores the synthetic data of the last days days in the
// store, the same way a device sync would.
func SeedHealthData(ctx context.Context, store healthStore, source *healthsource.SyntheticSource, days int, now time.Time) (healthsource.SyncResult, error) {
	if days <= 0 {
		return healthsource.SyncResult{}, fmt.Errorf("invalid days count: %d", days)
	}

	req, err := source.SyncRequest(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		return healthsource.SyncResult{}, fmt.Errorf("build sync request: %w", err)
	}
	log.Debugf("seeding %d sessions and %d daily rows", len(req.Sessions), len(req.Daily))

	result, err := store.Sync(ctx, req)
	if err != nil {
		return healthsource.SyncResult{}, fmt.Errorf("sync: %w", err)
	}
	return result, nil
}
