package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

const entryColumns = `
	e.id,
	e.trip_id,
	e.start_time,
	e.end_time,
	e.is_locked,
	e.is_scheduled,
	e.linked_flight_id,
	COALESCE(e.linked_type, ''),
	e.from_entry_id,
	e.to_entry_id,
	o.id,
	o.name,
	COALESCE(o.category, ''),
	COALESCE(o.departure_tz, ''),
	COALESCE(o.arrival_tz, ''),
	COALESCE(o.address, ''),
	COALESCE(o.transport_mode, ''),
	e.version
`

type entryScanner interface {
	Scan(dest ...any) error
}

// scanEntry 在读取时就确定条目类型，之后不再根据名称推断
func scanEntry(row entryScanner) (*domain.Entry, error) {
	var (
		entry                    domain.Entry
		linkedFlightID, from, to sql.NullInt64
	)

	dst := []any{
		&entry.ID,
		&entry.TripID,
		&entry.StartTime,
		&entry.EndTime,
		&entry.IsLocked,
		&entry.IsScheduled,
		&linkedFlightID,
		&entry.LinkedType,
		&from,
		&to,
		&entry.Option.ID,
		&entry.Option.Name,
		&entry.Option.Category,
		&entry.Option.DepartureTZ,
		&entry.Option.ArrivalTZ,
		&entry.Option.Address,
		&entry.Option.TransportMode,
		&entry.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	entry.StartTime = entry.StartTime.UTC()
	entry.EndTime = entry.EndTime.UTC()
	entry.LinkedFlightID = nullInt64Ptr(linkedFlightID)
	entry.FromEntryID = nullInt64Ptr(from)
	entry.ToEntryID = nullInt64Ptr(to)
	entry.Kind = domain.ClassifyKind(entry.Option)

	return &entry, nil
}

func (r *Repository) GetEntriesByTripID(tripID int64) ([]*domain.Entry, error) {
	query := `
		SELECT` + entryColumns + `
		FROM entries e
		JOIN options o ON e.option_id = o.id
		WHERE e.trip_id = $1
		ORDER BY e.start_time, e.id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *Repository) GetEntryByID(id int64) (*domain.Entry, error) {
	query := `
		SELECT` + entryColumns + `
		FROM entries e
		JOIN options o ON e.option_id = o.id
		WHERE e.id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanEntry(r.dbpool.QueryRowContext(ctx, query, id))
}

// UpdateEntryInterval 只写开始和结束时间。版本号不匹配时返回 sql.ErrNoRows。
func (r *Repository) UpdateEntryInterval(entry *domain.Entry) error {
	query := `
		UPDATE entries
		SET
			start_time = $1,
			end_time = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{entry.StartTime.UTC(), entry.EndTime.UTC(), entry.ID, entry.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&entry.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateEntryLock(entry *domain.Entry) error {
	query := `
		UPDATE entries
		SET
			is_locked = $1,
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, entry.IsLocked, entry.ID, entry.Version).Scan(&entry.Version); err != nil {
		return err
	}

	return nil
}

// CreateEntry 同时写入条目的主选项
func (r *Repository) CreateEntry(entry *domain.Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO options (name, category, departure_tz, arrival_tz, address, transport_mode)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id
	`

	opt := entry.Option
	args := []any{opt.Name, opt.Category, opt.DepartureTZ, opt.ArrivalTZ, opt.Address, opt.TransportMode}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&entry.Option.ID); err != nil {
		return err
	}

	query = `
		INSERT INTO entries (
			trip_id,
			option_id,
			start_time,
			end_time,
			is_locked,
			is_scheduled,
			linked_flight_id,
			linked_type,
			from_entry_id,
			to_entry_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
		RETURNING id, version
	`

	args = []any{
		entry.TripID,
		entry.Option.ID,
		entry.StartTime.UTC(),
		entry.EndTime.UTC(),
		entry.IsLocked,
		entry.IsScheduled,
		entry.LinkedFlightID,
		string(entry.LinkedType),
		entry.FromEntryID,
		entry.ToEntryID,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &entry.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	entry.Kind = domain.ClassifyKind(entry.Option)
	return nil
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
