package healthsource

// Schema creates the tables of the Postgres sync store.
const Schema = `
CREATE TABLE IF NOT EXISTS public.health_permission_grant
(
    platform   VARCHAR     NOT NULL,
    scope      VARCHAR     NOT NULL,
    granted    BOOLEAN     NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (platform, scope)
);

CREATE TABLE IF NOT EXISTS public.health_workout_session
(
    id          BIGSERIAL PRIMARY KEY,
    platform    VARCHAR     NOT NULL,
    external_id VARCHAR     NOT NULL,
    end_time    TIMESTAMPTZ NOT NULL,
    payload     JSONB       NOT NULL,
    synced_at   TIMESTAMPTZ NOT NULL,
    UNIQUE (platform, external_id)
);

CREATE INDEX IF NOT EXISTS ix_health_workout_session_end_time ON public.health_workout_session (platform, end_time);

CREATE TABLE IF NOT EXISTS public.health_daily_aggregate
(
    id        BIGSERIAL PRIMARY KEY,
    platform  VARCHAR     NOT NULL,
    metric    VARCHAR     NOT NULL,
    day       DATE        NOT NULL,
    payload   JSONB       NOT NULL,
    synced_at TIMESTAMPTZ NOT NULL,
    UNIQUE (platform, metric, day)
);
`
