package trips

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wheels/cache"
	"wheels/docstore"
	"wheels/models"
)

var (
	driverSess = models.Session{UserID: "d1", Role: models.RoleDriver, Name: "Laura"}
	otherSess  = models.Session{UserID: "d2", Role: models.RoleDriver, Name: "Pedro"}
	riderA     = models.Session{UserID: "rA", Role: models.RoleRider, Name: "Ana"}
	riderB     = models.Session{UserID: "rB", Role: models.RoleRider, Name: "Beto"}
)

type fakeNotifier struct {
	mu     sync.Mutex
	points []models.Point
}

func (n *fakeNotifier) PointAppended(ctx context.Context, trip *models.Trip, point models.Point) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.points = append(n.points, point)
	return nil
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	trips []string
}

func (b *fakeBroadcaster) TripChanged(trip *models.Trip) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trips = append(b.trips, trip.ID)
}

type fixture struct {
	store    *docstore.Store
	driver   *DriverService
	rider    *RiderService
	profiles *ProfileService
	notifier *fakeNotifier
	bcast    *fakeBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := docstore.Open(docstore.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{store: store, notifier: &fakeNotifier{}, bcast: &fakeBroadcaster{}}
	deps := Deps{
		Store:         store,
		Names:         cache.NewNames(16, time.Minute, nil, store),
		Notifier:      f.notifier,
		Broadcaster:   f.bcast,
		CloseWhenFull: true,
		Now:           func() time.Time { return time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC) },
	}
	f.driver = NewDriverService(deps)
	f.rider = NewRiderService(deps)
	f.profiles = NewProfileService(deps)
	return f
}

func (f *fixture) createTrip(t *testing.T, sess models.Session, seats int) *models.Trip {
	t.Helper()
	trip, err := f.driver.CreateTrip(context.Background(), sess, TripInput{
		ToUniversity: true,
		Address:      "Calle 45 #13-20",
		Date:         "2026-03-02",
		Time:         "07:00",
		Price:        8000,
		Seats:        seats,
	})
	require.NoError(t, err)
	return trip
}
