package geohash

import (
	"github.com/mmcloughlin/geohash"
)

// maxCoverPrecision is the finest precision CoverCells will pick.
const maxCoverPrecision = 7

// Encode coordinates into a geohash with specified precision.
func Encode(lat, lon float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}

// GetNeighbors returns the geohashes of neighboring cells.
func GetNeighbors(hash string) []string {
	return geohash.Neighbors(hash)
}

// Cell returns the hash of the given cell and its eight neighbours.
func Cell(lat, lon float64, precision uint) []string {
	hash := Encode(lat, lon, precision)
	return append(GetNeighbors(hash), hash)
}

// CoverCells returns cells whose union holds every point within radiusKm of
// (lat, lon): the point's cell and its neighbours, at the finest precision
// whose cells are at least radiusKm across. Nil means no precision is
// coarse enough and callers should not narrow by geohash.
func CoverCells(lat, lon, radiusKm float64) []string {
	dLat, dLon := degreeSpan(lat, radiusKm)
	for p := maxCoverPrecision; p >= 1; p-- {
		box := geohash.BoundingBox(Encode(lat, lon, uint(p)))
		if box.MaxLat-box.MinLat >= dLat && box.MaxLng-box.MinLng >= dLon {
			return Cell(lat, lon, uint(p))
		}
	}
	return nil
}
