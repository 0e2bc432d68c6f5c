package matching

import (
	"wheels/geohash"
	"wheels/models"
)

// NearbyTrips returns the trips whose departure point lies within radiusKm
// of (lat, lng), nearest first. Trips without a location are skipped.
func NearbyTrips(trips []*models.Trip, lat, lng, radiusKm float64) []*models.Trip {
	index := geohash.NewIndex()
	byID := make(map[string]*models.Trip, len(trips))
	for _, t := range trips {
		if t.Location == nil {
			continue
		}
		index.Insert(t.ID, t.Location.Lat, t.Location.Lng)
		byID[t.ID] = t
	}

	hits := index.SearchNearby(lat, lng, radiusKm)
	out := make([]*models.Trip, 0, len(hits))
	for _, h := range hits {
		out = append(out, byID[h.Key])
	}
	return out
}
