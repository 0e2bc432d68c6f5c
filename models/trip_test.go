package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

func TestTripLifecycle(t *testing.T) {
	trip := &Trip{Status: TripNotStarted}

	require.NoError(t, trip.Start(now))
	assert.Equal(t, TripInProgress, trip.Status)
	require.NotNil(t, trip.StartedAt)

	err := trip.Start(now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, trip.Finish(now))
	assert.Equal(t, TripFinished, trip.Status)

	assert.ErrorIs(t, trip.Finish(now), ErrInvalidTransition)
	assert.ErrorIs(t, trip.Start(now), ErrInvalidTransition)
}

func TestFinishRequiresStart(t *testing.T) {
	trip := &Trip{Status: TripNotStarted}
	assert.ErrorIs(t, trip.Finish(now), ErrInvalidTransition)
	assert.Equal(t, TripNotStarted, trip.Status)
}

func TestReserveSeat(t *testing.T) {
	trip := &Trip{Status: TripNotStarted, SeatsAvailable: 3, SeatsTotal: 3}
	require.NoError(t, trip.ReserveSeat(true, now))
	assert.Equal(t, 2, trip.SeatsAvailable)
	assert.Equal(t, TripNotStarted, trip.Status)
}

func TestReserveLastSeatClosesTrip(t *testing.T) {
	trip := &Trip{Status: TripNotStarted, SeatsAvailable: 1, SeatsTotal: 4}
	require.NoError(t, trip.ReserveSeat(true, now))
	assert.Equal(t, 0, trip.SeatsAvailable)
	assert.Equal(t, TripFinished, trip.Status)
	assert.Nil(t, trip.StartedAt)

	assert.ErrorIs(t, trip.ReserveSeat(true, now), ErrInvalidTransition)
}

func TestReserveLastSeatWithoutClosing(t *testing.T) {
	trip := &Trip{Status: TripNotStarted, SeatsAvailable: 1}
	require.NoError(t, trip.ReserveSeat(false, now))
	assert.Equal(t, 0, trip.SeatsAvailable)
	assert.Equal(t, TripNotStarted, trip.Status)

	assert.ErrorIs(t, trip.ReserveSeat(false, now), ErrNoSeatsAvailable)
	assert.Equal(t, 0, trip.SeatsAvailable)
}

func TestReserveOnRunningTripKeepsItRunning(t *testing.T) {
	trip := &Trip{Status: TripNotStarted, SeatsAvailable: 1}
	require.NoError(t, trip.Start(now))
	require.NoError(t, trip.ReserveSeat(true, now))
	assert.Equal(t, TripInProgress, trip.Status)
}

func TestReleaseSeat(t *testing.T) {
	trip := &Trip{Status: TripNotStarted, SeatsAvailable: 1, SeatsTotal: 3}
	require.NoError(t, trip.ReleaseSeat(true))
	assert.Equal(t, 2, trip.SeatsAvailable)
}

func TestReleaseSeatReopensFullTrip(t *testing.T) {
	trip := &Trip{Status: TripNotStarted, SeatsAvailable: 1, SeatsTotal: 2}
	require.NoError(t, trip.ReserveSeat(true, now))
	require.Equal(t, TripFinished, trip.Status)

	require.NoError(t, trip.ReleaseSeat(true))
	assert.Equal(t, TripNotStarted, trip.Status)
	assert.Equal(t, 1, trip.SeatsAvailable)
	assert.Nil(t, trip.FinishedAt)
}

func TestReleaseSeatOnCompletedTrip(t *testing.T) {
	trip := &Trip{Status: TripNotStarted, SeatsAvailable: 0, SeatsTotal: 2}
	require.NoError(t, trip.Start(now))
	require.NoError(t, trip.Finish(now))

	assert.ErrorIs(t, trip.ReleaseSeat(true), ErrInvalidTransition)
	assert.Equal(t, 0, trip.SeatsAvailable)
}

func TestReleaseSeatBoundedByTotal(t *testing.T) {
	trip := &Trip{Status: TripNotStarted, SeatsAvailable: 2, SeatsTotal: 2}
	err := trip.ReleaseSeat(true)
	assert.True(t, IsValidation(err))

	legacy := &Trip{Status: TripNotStarted, SeatsAvailable: 2}
	require.NoError(t, legacy.ReleaseSeat(true))
	assert.Equal(t, 3, legacy.SeatsAvailable)
}

func TestTripFilter(t *testing.T) {
	trip := &Trip{DriverID: "d1", Status: TripInProgress, Geohash: "d2g6fk2", Points: []Point{{RiderID: "r1"}}}

	assert.True(t, TripFilter{}.Match(trip))
	assert.True(t, TripFilter{DriverID: "d1", Status: TripInProgress}.Match(trip))
	assert.False(t, TripFilter{Status: TripFinished}.Match(trip))
	assert.False(t, TripFilter{DriverID: "d2"}.Match(trip))
	assert.True(t, TripFilter{RiderID: "r1"}.Match(trip))
	assert.False(t, TripFilter{RiderID: "r2"}.Match(trip))
	assert.True(t, TripFilter{GeohashPrefixes: []string{"d2g6e", "d2g6f"}}.Match(trip))
	assert.False(t, TripFilter{GeohashPrefixes: []string{"d2g6e"}}.Match(trip))
}

func TestTripDocumentKeys(t *testing.T) {
	raw := `{"idConductor":"d1","direccion":"Cra 7 #40","fecha":"2026-03-02","hora":"07:00",
		"precio":"8.000","estado":"not-started","cuposDisponibles":3,
		"puntos":[{"idCliente":"r1","direccion":"Calle 45","estado":"pending"}]}`

	var trip Trip
	require.NoError(t, json.Unmarshal([]byte(raw), &trip))
	assert.Equal(t, "d1", trip.DriverID)
	assert.Equal(t, Price(8000), trip.Price)
	assert.Equal(t, 3, trip.SeatsAvailable)
	require.Len(t, trip.Points, 1)
	assert.Equal(t, PointPending, trip.Points[0].Status)
}
