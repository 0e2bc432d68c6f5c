package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheels/models"
)

func at(id string, lat, lng float64) *models.Trip {
	return &models.Trip{ID: id, Location: &models.Coordinates{Lat: lat, Lng: lng}}
}

func TestNearbyTrips(t *testing.T) {
	trips := []*models.Trip{
		at("far", 4.7410, -74.0840),
		at("near", 4.6010, -74.0690),
		{ID: "nowhere"},
		at("closer", 4.6001, -74.0701),
	}

	got := NearbyTrips(trips, 4.6000, -74.0700, 3)
	require.Len(t, got, 2)
	assert.Equal(t, "closer", got[0].ID)
	assert.Equal(t, "near", got[1].ID)
}

func TestNearbyTripsEmpty(t *testing.T) {
	assert.Empty(t, NearbyTrips(nil, 4.6, -74.07, 5))
}
