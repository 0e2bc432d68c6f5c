package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"wheels/models"
)

const tripColumns = `id, driver_id, driver_name, to_university, address, trip_date, trip_time,
	price, status, seats_available, seats_total, points, latitude, longitude, geohash,
	started_at, finished_at, version, created_at, updated_at`

// Repository is the Postgres trip and profile store. Each trip row holds the
// whole document, points included, as JSONB.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	var (
		t          models.Trip
		price      float64
		points     []byte
		lat, lng   sql.NullFloat64
		start, fin sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.DriverID, &t.DriverName, &t.ToUniversity, &t.Address, &t.Date, &t.Time,
		&price, &t.Status, &t.SeatsAvailable, &t.SeatsTotal, &points, &lat, &lng, &t.Geohash,
		&start, &fin, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Price = models.Price(price)
	if err := json.Unmarshal(points, &t.Points); err != nil {
		return nil, fmt.Errorf("decode points of trip %s: %w", t.ID, err)
	}
	if t.Points == nil {
		t.Points = []models.Point{}
	}
	if lat.Valid && lng.Valid {
		t.Location = &models.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if start.Valid {
		t.StartedAt = &start.Time
	}
	if fin.Valid {
		t.FinishedAt = &fin.Time
	}
	return &t, nil
}

func nullCoords(c *models.Coordinates) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Lat, Valid: true}, sql.NullFloat64{Float64: c.Lng, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func encodePoints(points []models.Point) (string, error) {
	if points == nil {
		points = []models.Point{}
	}
	b, err := json.Marshal(points)
	if err != nil {
		return "", err
	}
	// lib/pq sends []byte as bytea, so JSONB goes over as text
	return string(b), nil
}

// CreateTrip inserts trip and assigns its id.
func (r *Repository) CreateTrip(ctx context.Context, trip *models.Trip) error {
	now := r.now()
	trip.ID = uuid.NewString()
	trip.Version = 1
	trip.CreatedAt = now
	trip.UpdatedAt = now
	if trip.Points == nil {
		trip.Points = []models.Point{}
	}
	points, err := encodePoints(trip.Points)
	if err != nil {
		return err
	}
	lat, lng := nullCoords(trip.Location)

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO trips (`+tripColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14, $15, $16, $17, $18, $19, $20)`,
		trip.ID, trip.DriverID, trip.DriverName, trip.ToUniversity, trip.Address, trip.Date, trip.Time,
		float64(trip.Price), trip.Status, trip.SeatsAvailable, trip.SeatsTotal, points, lat, lng, trip.Geohash,
		nullTime(trip.StartedAt), nullTime(trip.FinishedAt), trip.Version, trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (r *Repository) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	trip, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query trip %s: %w", id, err)
	}
	return trip, nil
}

// ListTrips translates the filter into a WHERE clause. Rider matching uses
// JSONB containment on the points array.
func (r *Repository) ListTrips(ctx context.Context, filter models.TripFilter) ([]*models.Trip, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.DriverID != "" {
		args = append(args, filter.DriverID)
		where = append(where, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RiderID != "" {
		probe, err := json.Marshal([]map[string]string{{"idCliente": filter.RiderID}})
		if err != nil {
			return nil, err
		}
		args = append(args, string(probe))
		where = append(where, fmt.Sprintf("points @> $%d::jsonb", len(args)))
	}
	if len(filter.GeohashPrefixes) > 0 {
		patterns := make([]string, len(filter.GeohashPrefixes))
		for i, p := range filter.GeohashPrefixes {
			patterns[i] = p + "%"
		}
		args = append(args, pq.Array(patterns))
		where = append(where, fmt.Sprintf("geohash LIKE ANY($%d)", len(args)))
	}

	query := `SELECT ` + tripColumns + ` FROM trips`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// UpdateTrip locks the row, applies mutate and writes the document back with
// a bumped version, all in one transaction.
func (r *Repository) UpdateTrip(ctx context.Context, id string, mutate func(*models.Trip) error) (*models.Trip, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	trip, err := scanTrip(tx.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock trip %s: %w", id, err)
	}

	prev := trip.Version
	if err := mutate(trip); err != nil {
		return nil, err
	}
	trip.Version = prev + 1
	trip.UpdatedAt = r.now()

	points, err := encodePoints(trip.Points)
	if err != nil {
		return nil, err
	}
	lat, lng := nullCoords(trip.Location)
	res, err := tx.ExecContext(ctx,
		`UPDATE trips SET driver_name = $1, status = $2, seats_available = $3, points = $4::jsonb,
		 latitude = $5, longitude = $6, geohash = $7, started_at = $8, finished_at = $9,
		 version = $10, updated_at = $11
		 WHERE id = $12 AND version = $13`,
		trip.DriverName, trip.Status, trip.SeatsAvailable, points,
		lat, lng, trip.Geohash, nullTime(trip.StartedAt), nullTime(trip.FinishedAt),
		trip.Version, trip.UpdatedAt, id, prev,
	)
	if err != nil {
		return nil, fmt.Errorf("update trip %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, models.ErrConflict
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit trip %s: %w", id, err)
	}
	return trip, nil
}
