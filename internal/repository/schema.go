package repository

import (
	"context"
	"time"
)

const schema = `
	CREATE TABLE IF NOT EXISTS trips (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		start_date    DATE,
		end_date      DATE,
		day_count     INTEGER NOT NULL DEFAULT 1,
		home_timezone TEXT NOT NULL DEFAULT 'UTC',
		notify_email  TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version       INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT trips_date_range_check CHECK (end_date IS NULL OR start_date <= end_date)
	);

	CREATE TABLE IF NOT EXISTS options (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL,
		category       TEXT,
		departure_tz   TEXT,
		arrival_tz     TEXT,
		address        TEXT,
		transport_mode TEXT
	);

	CREATE TABLE IF NOT EXISTS entries (
		id               BIGSERIAL PRIMARY KEY,
		trip_id          BIGINT NOT NULL REFERENCES trips (id) ON DELETE CASCADE,
		option_id        BIGINT NOT NULL REFERENCES options (id),
		start_time       TIMESTAMPTZ NOT NULL,
		end_time         TIMESTAMPTZ NOT NULL,
		is_locked        BOOLEAN NOT NULL DEFAULT FALSE,
		is_scheduled     BOOLEAN NOT NULL DEFAULT TRUE,
		linked_flight_id BIGINT REFERENCES entries (id) ON DELETE SET NULL,
		linked_type      TEXT,
		from_entry_id    BIGINT REFERENCES entries (id) ON DELETE SET NULL,
		to_entry_id      BIGINT REFERENCES entries (id) ON DELETE SET NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version          INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT entries_interval_check CHECK (start_time <= end_time),
		CONSTRAINT entries_linked_type_check CHECK (linked_type IN ('checkin', 'checkout'))
	);

	CREATE INDEX IF NOT EXISTS entries_trip_id_idx ON entries (trip_id, start_time);
`

// Migrate 创建所需的表，可以重复执行
func (r *Repository) Migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, schema); err != nil {
		return err
	}

	return nil
}
