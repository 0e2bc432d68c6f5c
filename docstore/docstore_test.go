package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheels/models"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTrip(driver string, status models.TripStatus) *models.Trip {
	return &models.Trip{
		DriverID:       driver,
		Address:        "Cra 7 #40-62",
		Date:           "2026-03-02",
		Time:           "07:00",
		Price:          8000,
		Status:         status,
		SeatsAvailable: 3,
		SeatsTotal:     3,
	}
}

func TestCreateAndGetTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	trip := newTrip("d1", models.TripNotStarted)
	require.NoError(t, s.CreateTrip(ctx, trip))
	require.NotEmpty(t, trip.ID)
	assert.EqualValues(t, 1, trip.Version)

	got, err := s.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "d1", got.DriverID)
	assert.Equal(t, models.Price(8000), got.Price)
	assert.NotNil(t, got.Points)

	_, err = s.GetTrip(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrTripNotFound)
}

func TestListTripsByStatus(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	for _, st := range []models.TripStatus{models.TripNotStarted, models.TripInProgress, models.TripNotStarted, models.TripFinished} {
		require.NoError(t, s.CreateTrip(ctx, newTrip("d1", st)))
	}
	require.NoError(t, s.CreateTrip(ctx, newTrip("d2", models.TripNotStarted)))

	all, err := s.ListTrips(ctx, models.TripFilter{Status: models.TripNotStarted})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, trip := range all {
		assert.Equal(t, models.TripNotStarted, trip.Status)
	}

	own, err := s.ListTrips(ctx, models.TripFilter{DriverID: "d1", Status: models.TripNotStarted})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	none, err := s.ListTrips(ctx, models.TripFilter{DriverID: "d2", Status: models.TripFinished})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateTripBumpsVersion(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	trip := newTrip("d1", models.TripNotStarted)
	require.NoError(t, s.CreateTrip(ctx, trip))

	updated, err := s.UpdateTrip(ctx, trip.ID, func(t *models.Trip) error {
		t.AddPoint(models.Point{RiderID: "r1", Address: "Calle 45"})
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.Version)
	require.Len(t, updated.Points, 1)
	assert.Equal(t, models.PointPending, updated.Points[0].Status)
}

func TestUpdateTripMutateErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	trip := newTrip("d1", models.TripNotStarted)
	require.NoError(t, s.CreateTrip(ctx, trip))

	boom := errors.New("boom")
	_, err := s.UpdateTrip(ctx, trip.ID, func(t *models.Trip) error {
		t.SeatsAvailable = 0
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SeatsAvailable)
	assert.EqualValues(t, 1, got.Version)
}

func TestUpdateTripMissing(t *testing.T) {
	s := openTest(t)
	_, err := s.UpdateTrip(context.Background(), "missing", func(*models.Trip) error { return nil })
	assert.ErrorIs(t, err, models.ErrTripNotFound)
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	trip := newTrip("d1", models.TripNotStarted)
	require.NoError(t, s.CreateTrip(ctx, trip))

	const riders = 4
	var wg sync.WaitGroup
	errs := make(chan error, riders)
	for i := 0; i < riders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateTrip(ctx, trip.ID, func(t *models.Trip) error {
				t.AddPoint(models.Point{RiderID: fmt.Sprintf("r%d", i), Address: "Calle 45"})
				return nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, got.Points, riders)
}

func TestListTripsByRider(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	a := newTrip("d1", models.TripNotStarted)
	b := newTrip("d2", models.TripNotStarted)
	require.NoError(t, s.CreateTrip(ctx, a))
	require.NoError(t, s.CreateTrip(ctx, b))

	_, err := s.UpdateTrip(ctx, b.ID, func(t *models.Trip) error {
		t.AddPoint(models.Point{RiderID: "r1", Address: "Calle 45"})
		return nil
	})
	require.NoError(t, err)

	mine, err := s.ListTrips(ctx, models.TripFilter{RiderID: "r1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].ID)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrProfileNotFound)

	require.NoError(t, s.UpsertProfile(ctx, &models.Profile{ID: "u1", Name: "Ana", Role: models.RoleDriver}))
	require.NoError(t, s.UpsertProfile(ctx, &models.Profile{ID: "u1", Name: "Ana María", Role: models.RoleDriver}))

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", p.Name)
}
