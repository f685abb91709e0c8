package healthsource

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio/health"
	"github.com/2beens/cardioprogress/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dayLayout = "2006-01-02"

var (
	_ health.PagedProvider = (*PsqlSource)(nil)

	ErrInvalidPageToken = errors.New("invalid page token")
)

// PsqlSource serves the raw payloads the mobile app uploaded, filtered to the
// platform the device last reported.
type PsqlSource struct {
	db       *pgxpool.Pool
	resolver health.Resolver
}

func NewPsqlSource(db *pgxpool.Pool, resolver health.Resolver) *PsqlSource {
	return &PsqlSource{
		db:       db,
		resolver: resolver,
	}
}

func (s *PsqlSource) platform(ctx context.Context) (health.Platform, error) {
	platform, err := s.resolver.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve platform: %w", err)
	}
	if platform == health.PlatformUnsupported {
		return "", health.ErrProviderUnavailable
	}
	return platform, nil
}

func (s *PsqlSource) RequestPermissions(ctx context.Context, scopes []health.Capability) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "healthsource.psql.requestPermissions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	platform, err := s.platform(ctx)
	if err != nil {
		return err
	}

	rows, err := s.db.Query(
		ctx,
		`SELECT scope, granted FROM health_permission_grant WHERE platform = $1;`,
		string(platform),
	)
	if err != nil {
		return fmt.Errorf("query grants: %w", err)
	}
	defer rows.Close()

	grants := make(map[health.Capability]bool)
	for rows.Next() {
		var scope string
		var granted bool
		if err := rows.Scan(&scope, &granted); err != nil {
			return fmt.Errorf("rows scan: %w", err)
		}
		grants[health.Capability(scope)] = granted
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}

	return checkGrants(grants, scopes)
}

// checkGrants fails with ErrProviderUnavailable when the device never synced
// any grant, and with ErrPermissionDenied on the first scope not granted.
func checkGrants(grants map[health.Capability]bool, scopes []health.Capability) error {
	if len(grants) == 0 {
		return health.ErrProviderUnavailable
	}
	for _, scope := range scopes {
		if !grants[scope] {
			return fmt.Errorf("%w: %s", health.ErrPermissionDenied, scope)
		}
	}
	return nil
}

func (s *PsqlSource) QueryWorkoutSessions(ctx context.Context, start, end time.Time) (_ []health.RawRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "healthsource.psql.queryWorkoutSessions")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	platform, err := s.platform(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		ctx,
		`SELECT id, payload FROM health_workout_session
		WHERE platform = $1 AND end_time >= $2 AND end_time <= $3
		ORDER BY end_time, id;`,
		string(platform), start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	records, _, err := scanPayloads(rows)
	return records, err
}

// QueryWorkoutSessionsPage pages through sessions with a keyset on the row id.
// The page token is the id of the last row of the previous page.
func (s *PsqlSource) QueryWorkoutSessionsPage(ctx context.Context, start, end time.Time, pageToken string, pageSize int) (_ health.SessionPage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "healthsource.psql.queryWorkoutSessionsPage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var afterID int64
	if pageToken != "" {
		afterID, err = strconv.ParseInt(pageToken, 10, 64)
		if err != nil {
			return health.SessionPage{}, fmt.Errorf("%w: %q", ErrInvalidPageToken, pageToken)
		}
	}
	if pageSize <= 0 {
		pageSize = 500
	}

	platform, err := s.platform(ctx)
	if err != nil {
		return health.SessionPage{}, err
	}

	// one extra row tells whether another page follows
	rows, err := s.db.Query(
		ctx,
		`SELECT id, payload FROM health_workout_session
		WHERE platform = $1 AND end_time >= $2 AND end_time <= $3 AND id > $4
		ORDER BY id
		LIMIT $5;`,
		string(platform), start, end, afterID, pageSize+1,
	)
	if err != nil {
		return health.SessionPage{}, fmt.Errorf("query sessions page: %w", err)
	}
	defer rows.Close()

	records, ids, err := scanPayloads(rows)
	if err != nil {
		return health.SessionPage{}, err
	}

	page := health.SessionPage{Records: records}
	if len(records) > pageSize {
		page.Records = records[:pageSize]
		page.NextPageToken = strconv.FormatInt(ids[pageSize-1], 10)
	}
	return page, nil
}

func (s *PsqlSource) QueryDailyAggregate(ctx context.Context, metric health.DailyMetric, start, end time.Time) (_ []health.RawRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "healthsource.psql.queryDailyAggregate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	platform, err := s.platform(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		ctx,
		`SELECT id, payload FROM health_daily_aggregate
		WHERE platform = $1 AND metric = $2 AND day >= $3::date AND day <= $4::date
		ORDER BY day;`,
		string(platform), string(metric), start.Format(dayLayout), end.Format(dayLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query %s aggregate: %w", metric, err)
	}
	defer rows.Close()

	records, _, err := scanPayloads(rows)
	return records, err
}

func scanPayloads(rows pgx.Rows) ([]health.RawRecord, []int64, error) {
	var records []health.RawRecord
	var ids []int64
	for rows.Next() {
		var id int64
		var payload map[string]any
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, nil, fmt.Errorf("rows scan: %w", err)
		}
		records = append(records, payload)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("rows: %w", err)
	}
	return records, ids, nil
}

// Sync stores one upload from the device in a single transaction. Sessions
// and daily rows are upserted so a repeated upload does not duplicate data.
func (s *PsqlSource) Sync(ctx context.Context, req SyncRequest) (_ SyncResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "healthsource.psql.sync")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	platform, err := req.Validate()
	if err != nil {
		return SyncResult{}, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback(ctx)
	}()

	now := time.Now()
	batch := &pgx.Batch{}
	for _, scope := range req.Grants {
		batch.Queue(
			`INSERT INTO health_permission_grant (platform, scope, granted, updated_at)
			VALUES ($1, $2, TRUE, $3)
			ON CONFLICT (platform, scope) DO UPDATE SET granted = TRUE, updated_at = EXCLUDED.updated_at;`,
			string(platform), string(scope), now,
		)
	}
	for _, scope := range req.Revoked {
		batch.Queue(
			`INSERT INTO health_permission_grant (platform, scope, granted, updated_at)
			VALUES ($1, $2, FALSE, $3)
			ON CONFLICT (platform, scope) DO UPDATE SET granted = FALSE, updated_at = EXCLUDED.updated_at;`,
			string(platform), string(scope), now,
		)
	}
	for _, session := range req.Sessions {
		batch.Queue(
			`INSERT INTO health_workout_session (platform, external_id, end_time, payload, synced_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (platform, external_id) DO UPDATE
			SET end_time = EXCLUDED.end_time, payload = EXCLUDED.payload, synced_at = EXCLUDED.synced_at;`,
			string(platform), session.externalID(), session.EndTime, map[string]any(session.Payload), now,
		)
	}
	for _, daily := range req.Daily {
		batch.Queue(
			`INSERT INTO health_daily_aggregate (platform, metric, day, payload, synced_at)
			VALUES ($1, $2, $3::date, $4, $5)
			ON CONFLICT (platform, metric, day) DO UPDATE
			SET payload = EXCLUDED.payload, synced_at = EXCLUDED.synced_at;`,
			string(platform), string(daily.Metric), daily.Day, map[string]any(daily.Payload), now,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return SyncResult{}, fmt.Errorf("send batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return SyncResult{}, fmt.Errorf("commit: %w", err)
	}

	return SyncResult{
		Platform: platform,
		Grants:   len(req.Grants) + len(req.Revoked),
		Sessions: len(req.Sessions),
		Daily:    len(req.Daily),
	}, nil
}
