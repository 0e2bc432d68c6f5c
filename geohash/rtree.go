package geohash

import (
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
)

// pointTolerance is the half-size of the box stored for each point.
const pointTolerance = 0.00001

// Entry is an indexed position carrying a caller key.
type Entry struct {
	Key      string
	Lat, Lon float64
}

// Bounds satisfies rtreego.Spatial.
func (e *Entry) Bounds() rtreego.Rect {
	return rtreego.Point{e.Lat, e.Lon}.ToRect(pointTolerance)
}

// Hit is a search result with its distance to the query point.
type Hit struct {
	Entry
	DistanceKm float64
}

// Index is an R-tree of positions keyed by string.
type Index struct {
	mu      sync.Mutex
	tree    *rtreego.Rtree
	entries map[string]*Entry
}

func NewIndex() *Index {
	return &Index{
		tree:    rtreego.NewTree(2, 25, 50),
		entries: map[string]*Entry{},
	}
}

// Insert adds or moves key to the given position.
func (ix *Index) Insert(key string, lat, lon float64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old, ok := ix.entries[key]; ok {
		ix.tree.Delete(old)
	}
	e := &Entry{Key: key, Lat: lat, Lon: lon}
	ix.entries[key] = e
	ix.tree.Insert(e)
}

func (ix *Index) Remove(key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old, ok := ix.entries[key]; ok {
		ix.tree.Delete(old)
		delete(ix.entries, key)
	}
}

func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}

// SearchNearby returns the entries within radiusKm of (lat, lon), nearest
// first.
func (ix *Index) SearchNearby(lat, lon, radiusKm float64) []Hit {
	dLat, dLon := degreeSpan(lat, radiusKm)
	box, err := rtreego.NewRect(rtreego.Point{lat - dLat, lon - dLon}, []float64{2 * dLat, 2 * dLon})
	if err != nil {
		return nil
	}

	ix.mu.Lock()
	candidates := ix.tree.SearchIntersect(box)
	ix.mu.Unlock()

	var hits []Hit
	for _, c := range candidates {
		e := c.(*Entry)
		d := Haversine(lat, lon, e.Lat, e.Lon)
		if d <= radiusKm {
			hits = append(hits, Hit{Entry: *e, DistanceKm: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm == hits[j].DistanceKm {
			return hits[i].Key < hits[j].Key
		}
		return hits[i].DistanceKm < hits[j].DistanceKm
	})
	return hits
}
