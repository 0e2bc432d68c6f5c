package trips

import (
	"context"
	"log"
	"time"

	"wheels/geohash"
	"wheels/metrics"
	"wheels/models"
)

const geohashPrecision = 7

// Deps wires the collaborators shared by the driver and rider services.
// Only Store is required.
type Deps struct {
	Store         Store
	Names         NameResolver
	Geocoder      Geocoder
	Notifier      Notifier
	Broadcaster   Broadcaster
	Metrics       *metrics.Collector
	CloseWhenFull bool
	Now           func() time.Time
}

type base struct {
	Deps
}

func newBase(d Deps) base {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return base{Deps: d}
}

func (b *base) changed(trip *models.Trip) {
	if b.Broadcaster != nil {
		b.Broadcaster.TripChanged(trip)
	}
}

func (b *base) displayName(ctx context.Context, id, fallback string) string {
	if b.Names == nil {
		return fallback
	}
	name, err := b.Names.Get(ctx, id)
	if err != nil || name == "" {
		return fallback
	}
	return name
}

func (b *base) locate(ctx context.Context, trip *models.Trip) {
	if b.Geocoder == nil {
		return
	}
	c, err := b.Geocoder.Geocode(ctx, trip.Address)
	if err != nil {
		log.Printf("trips: geocode address=%q: %v", trip.Address, err)
		return
	}
	trip.Location = &c
	trip.Geohash = geohash.Encode(c.Lat, c.Lng, geohashPrecision)
}

// GetTrip returns any trip by id. Both roles may read every trip.
func (b *base) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	return b.Store.GetTrip(ctx, id)
}

func parseTripStatus(status string) (models.TripStatus, error) {
	s := models.TripStatus(status)
	if !s.Valid() {
		return "", &models.ValidationError{Field: "estado", Message: "unknown trip status " + status}
	}
	return s, nil
}
