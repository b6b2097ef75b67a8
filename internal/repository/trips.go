package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/domain"
)

func (r *Repository) GetAllTrips() ([]*domain.Trip, error) {
	query := `
		SELECT id, name, start_date, end_date, day_count, home_timezone, notify_email, created_at, version
		FROM trips
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]*domain.Trip, 0)
	for rows.Next() {
		trip := &domain.Trip{}
		var startDate, endDate sql.NullTime
		dst := []any{&trip.ID, &trip.Name, &startDate, &endDate, &trip.DayCount, &trip.HomeTimezone, &trip.NotifyEmail, &trip.CreatedAt, &trip.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		trip.StartDate, trip.EndDate = nullTimePtr(startDate), nullTimePtr(endDate)
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trips, nil
}

func (r *Repository) GetTripByID(id int64) (*domain.Trip, error) {
	query := `
		SELECT name, start_date, end_date, day_count, home_timezone, notify_email, created_at, version
		FROM trips WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	trip := &domain.Trip{
		ID: id,
	}

	var startDate, endDate sql.NullTime
	dst := []any{&trip.Name, &startDate, &endDate, &trip.DayCount, &trip.HomeTimezone, &trip.NotifyEmail, &trip.CreatedAt, &trip.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}
	trip.StartDate, trip.EndDate = nullTimePtr(startDate), nullTimePtr(endDate)

	return trip, nil
}

func (r *Repository) CreateTrip(trip *domain.Trip) error {
	query := `
		INSERT INTO trips (name, start_date, end_date, day_count, home_timezone, notify_email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{trip.Name, trip.StartDate, trip.EndDate, trip.DayCount, trip.HomeTimezone, trip.NotifyEmail}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&trip.ID, &trip.CreatedAt, &trip.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteTrip(id int64) error {
	query := `
		DELETE FROM trips WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
