package geohash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	// Plaza de Bolívar to Universidad de los Andes, Bogotá
	d := Haversine(4.5981, -74.0760, 4.6015, -74.0655)
	assert.InDelta(t, 1.22, d, 0.05)
	assert.Zero(t, Haversine(4.6, -74.0, 4.6, -74.0))
}

func TestIndexSearchNearby(t *testing.T) {
	ix := NewIndex()
	ix.Insert("campus", 4.6015, -74.0655)
	ix.Insert("centro", 4.5981, -74.0760)
	ix.Insert("suba", 4.7410, -74.0840)

	hits := ix.SearchNearby(4.6000, -74.0700, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "campus", hits[0].Key)
	assert.Equal(t, "centro", hits[1].Key)
	assert.LessOrEqual(t, hits[0].DistanceKm, hits[1].DistanceKm)

	assert.Len(t, ix.SearchNearby(4.6000, -74.0700, 30), 3)
}

func TestIndexMoveAndRemove(t *testing.T) {
	ix := NewIndex()
	ix.Insert("a", 4.60, -74.07)
	ix.Insert("a", 4.74, -74.08)
	assert.Equal(t, 1, ix.Len())
	assert.Empty(t, ix.SearchNearby(4.60, -74.07, 1))
	assert.Len(t, ix.SearchNearby(4.74, -74.08, 1), 1)

	ix.Remove("a")
	assert.Zero(t, ix.Len())
	assert.Empty(t, ix.SearchNearby(4.74, -74.08, 1))
}

func TestEncodeAndCell(t *testing.T) {
	hash := Encode(4.6015, -74.0655, 7)
	assert.Len(t, hash, 7)
	cells := Cell(4.6015, -74.0655, 5)
	assert.Len(t, cells, 9)
	assert.Contains(t, cells, hash[:5])
}
