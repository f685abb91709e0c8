package healthsource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/telemetry/tracing"
	"github.com/2beens/cardioprogress/pkg"

	log "github.com/sirupsen/logrus"
)

type syncStore interface {
	Sync(ctx context.Context, req SyncRequest) (SyncResult, error)
}

type platformStore interface {
	Store(ctx context.Context, platform health.Platform) error
}

type SyncHandler struct {
	store     syncStore
	platforms platformStore
	// afterSync drops whatever was computed from the previous upload
	afterSync func()
}

func NewSyncHandler(store syncStore, platforms platformStore, afterSync func()) *SyncHandler {
	if afterSync == nil {
		afterSync = func() {}
	}
	return &SyncHandler{
		store:     store,
		platforms: platforms,
		afterSync: afterSync,
	}
}

func (handler *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.health.sync")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("health sync, unmarshal json: %s", err)
		http.Error(w, "health sync failed", http.StatusBadRequest)
		return
	}

	result, err := handler.store.Sync(ctx, req)
	if errors.Is(err, ErrInvalidSync) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("health sync from %s failed: %s", req.Platform, err)
		http.Error(w, "error, failed to store health data", http.StatusInternalServerError)
		return
	}

	if err := handler.platforms.Store(ctx, result.Platform); err != nil {
		// the data is stored, the platform will be reported again by the next sync
		log.Errorf("store synced platform %s: %s", result.Platform, err)
	}
	handler.afterSync()

	resultJson, err := json.Marshal(result)
	if err != nil {
		log.Errorf("marshal sync result: %s", err)
		http.Error(w, "error, failed to marshal sync result", http.StatusInternalServerError)
		return
	}

	log.Debugf("health sync stored: %s", resultJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resultJson, http.StatusCreated)
}
