package trips

import (
	"context"
	"fmt"
	"log"
	"strings"

	"wheels/models"
)

// TripInput is what a driver fills in to publish a trip.
type TripInput struct {
	ToUniversity bool         `json:"haciaUniversidad"`
	Address      string       `json:"direccion"`
	Date         string       `json:"fecha"`
	Time         string       `json:"hora"`
	Price        models.Price `json:"precio"`
	Seats        int          `json:"cuposDisponibles"`
}

func (in TripInput) validate() error {
	switch {
	case strings.TrimSpace(in.Address) == "":
		return &models.ValidationError{Field: "direccion", Message: "is required"}
	case strings.TrimSpace(in.Date) == "":
		return &models.ValidationError{Field: "fecha", Message: "is required"}
	case strings.TrimSpace(in.Time) == "":
		return &models.ValidationError{Field: "hora", Message: "is required"}
	case !in.Price.Finite():
		return &models.ValidationError{Field: "precio", Message: "must be a finite number"}
	case in.Price < 0:
		return &models.ValidationError{Field: "precio", Message: "must not be negative"}
	case in.Seats < 1:
		return &models.ValidationError{Field: "cuposDisponibles", Message: "must be at least 1"}
	}
	return nil
}

// DriverService holds the operations a driver performs on their own trips.
type DriverService struct {
	base
}

func NewDriverService(d Deps) *DriverService {
	return &DriverService{base: newBase(d)}
}

// CreateTrip publishes a new not-started trip owned by the session user.
func (s *DriverService) CreateTrip(ctx context.Context, sess models.Session, in TripInput) (*models.Trip, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	trip := &models.Trip{
		DriverID:       sess.UserID,
		DriverName:     s.displayName(ctx, sess.UserID, sess.Name),
		ToUniversity:   in.ToUniversity,
		Address:        strings.TrimSpace(in.Address),
		Date:           in.Date,
		Time:           in.Time,
		Price:          in.Price,
		Status:         models.TripNotStarted,
		SeatsAvailable: in.Seats,
		SeatsTotal:     in.Seats,
		Points:         []models.Point{},
	}
	s.locate(ctx, trip)

	if err := s.Store.CreateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	s.Metrics.TripCreated()
	log.Printf("trips: created trip=%s driver=%s seats=%d", trip.ID, trip.DriverID, trip.SeatsAvailable)
	s.changed(trip)
	return trip, nil
}

// TripsByStatus returns the session driver's trips in the given status.
func (s *DriverService) TripsByStatus(ctx context.Context, sess models.Session, status string) ([]*models.Trip, error) {
	st, err := parseTripStatus(status)
	if err != nil {
		return nil, err
	}
	trips, err := s.Store.ListTrips(ctx, models.TripFilter{DriverID: sess.UserID, Status: st})
	if err != nil {
		return nil, fmt.Errorf("list driver trips: %w", err)
	}
	return trips, nil
}

// mutateOwned runs fn on a trip only if the session driver owns it.
func (s *DriverService) mutateOwned(ctx context.Context, sess models.Session, tripID string, fn func(*models.Trip) error) (*models.Trip, error) {
	trip, err := s.Store.UpdateTrip(ctx, tripID, func(t *models.Trip) error {
		if t.DriverID != sess.UserID {
			return models.ErrForbidden
		}
		return fn(t)
	})
	if err != nil {
		return nil, err
	}
	s.changed(trip)
	return trip, nil
}

func (s *DriverService) StartTrip(ctx context.Context, sess models.Session, tripID string) (*models.Trip, error) {
	trip, err := s.mutateOwned(ctx, sess, tripID, func(t *models.Trip) error {
		return t.Start(s.Now())
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.TripTransition(string(trip.Status))
	log.Printf("trips: started trip=%s", trip.ID)
	return trip, nil
}

func (s *DriverService) FinishTrip(ctx context.Context, sess models.Session, tripID string) (*models.Trip, error) {
	trip, err := s.mutateOwned(ctx, sess, tripID, func(t *models.Trip) error {
		return t.Finish(s.Now())
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.TripTransition(string(trip.Status))
	log.Printf("trips: finished trip=%s", trip.ID)
	return trip, nil
}

// SetPointStatus accepts or denies the pending pickup request of riderID.
func (s *DriverService) SetPointStatus(ctx context.Context, sess models.Session, tripID, riderID, status string) (*models.Trip, error) {
	target := models.PointStatus(status)
	if target != models.PointAccepted && target != models.PointDenied {
		return nil, &models.ValidationError{Field: "estado", Message: "must be accepted or denied"}
	}
	trip, err := s.mutateOwned(ctx, sess, tripID, func(t *models.Trip) error {
		_, err := t.SetPointStatus(riderID, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.PointStatusChanged(status)
	log.Printf("trips: point trip=%s rider=%s status=%s", trip.ID, riderID, status)
	return trip, nil
}

func (s *DriverService) ReserveSeat(ctx context.Context, sess models.Session, tripID string) (*models.Trip, error) {
	before := models.TripStatus("")
	trip, err := s.mutateOwned(ctx, sess, tripID, func(t *models.Trip) error {
		before = t.Status
		return t.ReserveSeat(s.CloseWhenFull, s.Now())
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.SeatChanged("reserve")
	if trip.Status != before {
		s.Metrics.TripTransition(string(trip.Status))
		log.Printf("trips: trip=%s full, status=%s", trip.ID, trip.Status)
	}
	return trip, nil
}

func (s *DriverService) ReleaseSeat(ctx context.Context, sess models.Session, tripID string) (*models.Trip, error) {
	before := models.TripStatus("")
	trip, err := s.mutateOwned(ctx, sess, tripID, func(t *models.Trip) error {
		before = t.Status
		return t.ReleaseSeat(s.CloseWhenFull)
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.SeatChanged("release")
	if trip.Status != before {
		s.Metrics.TripTransition(string(trip.Status))
		log.Printf("trips: trip=%s reopened", trip.ID)
	}
	return trip, nil
}
