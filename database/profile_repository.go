package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"wheels/models"
)

func (r *Repository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	var vehicle sql.NullString
	if p.Vehicle != nil {
		b, err := json.Marshal(p.Vehicle)
		if err != nil {
			return err
		}
		vehicle = sql.NullString{String: string(b), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, photo_url, role, vehicle, updated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, photo_url = EXCLUDED.photo_url,
		 role = EXCLUDED.role, vehicle = EXCLUDED.vehicle, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.PhotoURL, string(p.Role), vehicle, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *Repository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var (
		p       models.Profile
		vehicle []byte
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, photo_url, role, vehicle, updated_at FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.PhotoURL, &p.Role, &vehicle, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w", id, err)
	}
	if len(vehicle) > 0 {
		p.Vehicle = &models.Vehicle{}
		if err := json.Unmarshal(vehicle, p.Vehicle); err != nil {
			return nil, fmt.Errorf("decode vehicle: %w", err)
		}
	}
	return &p, nil
}
