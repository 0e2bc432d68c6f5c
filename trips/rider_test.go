package trips

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheels/geohash"
	"wheels/models"
)

func TestRequestPickup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, driverSess, 3)

	got, err := f.rider.RequestPickup(ctx, riderA, trip.ID, PointInput{Address: " Calle 53 "})
	require.NoError(t, err)
	require.Len(t, got.Points, 1)
	p := got.Points[0]
	assert.Equal(t, riderA.UserID, p.RiderID)
	assert.Equal(t, "Calle 53", p.Address)
	assert.Equal(t, models.PointPending, p.Status)

	require.Len(t, f.notifier.points, 1)
	assert.Equal(t, riderA.UserID, f.notifier.points[0].RiderID)

	// a second request from the same rider is kept as a separate point
	got, err = f.rider.RequestPickup(ctx, riderA, trip.ID, PointInput{Address: "Calle 57"})
	require.NoError(t, err)
	assert.Len(t, got.Points, 2)
}

func TestRequestPickupValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, driverSess, 3)

	_, err := f.rider.RequestPickup(ctx, riderA, trip.ID, PointInput{})
	assert.True(t, models.IsValidation(err))

	_, err = f.rider.RequestPickup(ctx, riderA, trip.ID, PointInput{Address: "Calle 53", Status: models.PointAccepted})
	assert.True(t, models.IsValidation(err))

	_, err = f.rider.RequestPickup(ctx, riderA, "missing", PointInput{Address: "Calle 53"})
	assert.ErrorIs(t, err, models.ErrTripNotFound)
	assert.Empty(t, f.notifier.points)
}

func TestConcurrentPickupsAreAllKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	trip := f.createTrip(t, driverSess, 3)

	riders := []models.Session{riderA, riderB}
	var wg sync.WaitGroup
	for _, r := range riders {
		wg.Add(1)
		go func(sess models.Session) {
			defer wg.Done()
			_, err := f.rider.RequestPickup(ctx, sess, trip.ID, PointInput{Address: "Calle 53"})
			assert.NoError(t, err)
		}(r)
	}
	wg.Wait()

	stored, err := f.store.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Points, 2)
}

func TestRiderQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := f.createTrip(t, driverSess, 3)
	other := f.createTrip(t, otherSess, 3)
	_, err := f.driver.StartTrip(ctx, otherSess, other.ID)
	require.NoError(t, err)

	_, err = f.rider.RequestPickup(ctx, riderA, other.ID, PointInput{Address: "Calle 53"})
	require.NoError(t, err)

	all, err := f.rider.TripsByStatus(ctx, riderB, "not-started")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, open.ID, all[0].ID)

	mine, err := f.rider.MyTrips(ctx, riderA)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, other.ID, mine[0].ID)

	none, err := f.rider.MyTrips(ctx, riderB)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRiderSeesRenamedDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTrip(t, driverSess, 3)

	_, err := f.profiles.UpsertProfile(ctx, driverSess, ProfileInput{Name: "Laura M."})
	require.NoError(t, err)

	trips, err := f.rider.TripsByStatus(ctx, riderA, "not-started")
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "Laura M.", trips[0].DriverName)
}

func TestNearbyTrips(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	near := f.createTrip(t, driverSess, 3)
	far := f.createTrip(t, otherSess, 3)
	for id, c := range map[string]models.Coordinates{
		near.ID: {Lat: 4.6280, Lng: -74.0650},
		far.ID:  {Lat: 4.7110, Lng: -74.0300},
	} {
		c := c
		_, err := f.store.UpdateTrip(ctx, id, func(t *models.Trip) error {
			t.Location = &c
			t.Geohash = geohash.Encode(c.Lat, c.Lng, geohashPrecision)
			return nil
		})
		require.NoError(t, err)
	}

	got, err := f.rider.NearbyTrips(ctx, riderA, 4.6300, -74.0640, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)

	_, err = f.rider.NearbyTrips(ctx, riderA, 4.6300, -74.0640, 0)
	assert.True(t, models.IsValidation(err))
}
