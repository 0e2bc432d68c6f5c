package trips

import (
	"context"

	"wheels/models"
)

// TripStore is the document store holding trips and their embedded points.
type TripStore interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	GetTrip(ctx context.Context, id string) (*models.Trip, error)
	ListTrips(ctx context.Context, filter models.TripFilter) ([]*models.Trip, error)
	// UpdateTrip applies mutate to the stored trip atomically. If mutate
	// returns an error nothing is written.
	UpdateTrip(ctx context.Context, id string, mutate func(*models.Trip) error) (*models.Trip, error)
}

type ProfileStore interface {
	UpsertProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Store is what both backends provide.
type Store interface {
	TripStore
	ProfileStore
}

// NameResolver returns display names for user ids.
type NameResolver interface {
	Get(ctx context.Context, id string) (string, error)
	Invalidate(ctx context.Context, id string) error
}

// Geocoder turns a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}

// Notifier is told about new pickup requests.
type Notifier interface {
	PointAppended(ctx context.Context, trip *models.Trip, point models.Point) error
}

// Broadcaster pushes trip snapshots to live subscribers.
type Broadcaster interface {
	TripChanged(trip *models.Trip)
}
