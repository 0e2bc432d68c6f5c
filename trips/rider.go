package trips

import (
	"context"
	"fmt"
	"log"
	"strings"

	"wheels/geohash"
	"wheels/matching"
	"wheels/models"
)

// PointInput is a rider's pickup request.
type PointInput struct {
	Address string             `json:"direccion"`
	Status  models.PointStatus `json:"estado,omitempty"`
}

// RiderService holds the operations available to riders. Riders can read
// every trip but only append points.
type RiderService struct {
	base
}

func NewRiderService(d Deps) *RiderService {
	return &RiderService{base: newBase(d)}
}

// TripsByStatus returns every trip in the store with the given status.
func (s *RiderService) TripsByStatus(ctx context.Context, sess models.Session, status string) ([]*models.Trip, error) {
	st, err := parseTripStatus(status)
	if err != nil {
		return nil, err
	}
	trips, err := s.Store.ListTrips(ctx, models.TripFilter{Status: st})
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	s.refreshNames(ctx, trips)
	return trips, nil
}

// MyTrips returns the trips where the session rider requested a pickup.
func (s *RiderService) MyTrips(ctx context.Context, sess models.Session) ([]*models.Trip, error) {
	trips, err := s.Store.ListTrips(ctx, models.TripFilter{RiderID: sess.UserID})
	if err != nil {
		return nil, fmt.Errorf("list rider trips: %w", err)
	}
	s.refreshNames(ctx, trips)
	return trips, nil
}

// NearbyTrips returns not-started trips leaving within radiusKm of the
// given position, nearest first.
func (s *RiderService) NearbyTrips(ctx context.Context, sess models.Session, lat, lng, radiusKm float64) ([]*models.Trip, error) {
	if radiusKm <= 0 {
		return nil, &models.ValidationError{Field: "radius_km", Message: "must be positive"}
	}
	filter := models.TripFilter{
		Status:          models.TripNotStarted,
		GeohashPrefixes: geohash.CoverCells(lat, lng, radiusKm),
	}
	trips, err := s.Store.ListTrips(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	near := matching.NearbyTrips(trips, lat, lng, radiusKm)
	s.refreshNames(ctx, near)
	return near, nil
}

// RequestPickup appends a pending point for the session rider.
func (s *RiderService) RequestPickup(ctx context.Context, sess models.Session, tripID string, in PointInput) (*models.Trip, error) {
	if strings.TrimSpace(in.Address) == "" {
		return nil, &models.ValidationError{Field: "direccion", Message: "is required"}
	}
	if in.Status != "" && in.Status != models.PointPending {
		return nil, &models.ValidationError{Field: "estado", Message: "new points are always pending"}
	}

	point := models.Point{
		RiderID:   sess.UserID,
		Address:   strings.TrimSpace(in.Address),
		Status:    in.Status,
		CreatedAt: s.Now(),
	}
	trip, err := s.Store.UpdateTrip(ctx, tripID, func(t *models.Trip) error {
		t.AddPoint(point)
		return nil
	})
	if err != nil {
		return nil, err
	}
	point = trip.Points[len(trip.Points)-1]
	s.Metrics.PointAppended()
	log.Printf("trips: point appended trip=%s rider=%s", trip.ID, sess.UserID)

	if s.Notifier != nil {
		if err := s.Notifier.PointAppended(ctx, trip, point); err != nil {
			log.Printf("trips: notify point trip=%s: %v", trip.ID, err)
		}
	}
	s.changed(trip)
	return trip, nil
}

func (s *RiderService) refreshNames(ctx context.Context, trips []*models.Trip) {
	for _, t := range trips {
		t.DriverName = s.displayName(ctx, t.DriverID, t.DriverName)
	}
}
