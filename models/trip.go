package models

import (
	"strings"
	"time"
)

type TripStatus string

const (
	TripNotStarted TripStatus = "not-started"
	TripInProgress TripStatus = "in-progress"
	TripFinished   TripStatus = "finished"
)

// Valid reports whether s is part of the trip status vocabulary.
func (s TripStatus) Valid() bool {
	switch s {
	case TripNotStarted, TripInProgress, TripFinished:
		return true
	}
	return false
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Trip struct {
	ID             string       `json:"id"`
	DriverID       string       `json:"idConductor"`
	DriverName     string       `json:"nombreConductor"`
	ToUniversity   bool         `json:"haciaUniversidad"`
	Address        string       `json:"direccion"`
	Date           string       `json:"fecha"`
	Time           string       `json:"hora"`
	Price          Price        `json:"precio"`
	Status         TripStatus   `json:"estado"`
	SeatsAvailable int          `json:"cuposDisponibles"`
	SeatsTotal     int          `json:"cuposTotales"`
	Points         []Point      `json:"puntos"`
	Location       *Coordinates `json:"ubicacion,omitempty"`
	Geohash        string       `json:"geohash,omitempty"`
	StartedAt      *time.Time   `json:"iniciadoEn,omitempty"`
	FinishedAt     *time.Time   `json:"finalizadoEn,omitempty"`
	Version        int64        `json:"version"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// TripFilter narrows ListTrips. Zero fields match everything.
type TripFilter struct {
	DriverID string
	RiderID  string
	Status   TripStatus
	// GeohashPrefixes keeps trips whose geohash starts with any of them.
	GeohashPrefixes []string
}

// Match reports whether t satisfies the filter.
func (f TripFilter) Match(t *Trip) bool {
	if f.DriverID != "" && t.DriverID != f.DriverID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.RiderID != "" && !t.HasRider(f.RiderID) {
		return false
	}
	if len(f.GeohashPrefixes) > 0 && !hasAnyPrefix(t.Geohash, f.GeohashPrefixes) {
		return false
	}
	return true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// HasRider reports whether the rider has at least one point on the trip.
func (t *Trip) HasRider(riderID string) bool {
	for _, p := range t.Points {
		if p.RiderID == riderID {
			return true
		}
	}
	return false
}

// Start moves a not-started trip to in-progress.
func (t *Trip) Start(now time.Time) error {
	if t.Status != TripNotStarted {
		return transitionError("trip", string(t.Status), string(TripInProgress))
	}
	t.Status = TripInProgress
	t.StartedAt = &now
	return nil
}

// Finish moves an in-progress trip to finished.
func (t *Trip) Finish(now time.Time) error {
	if t.Status != TripInProgress {
		return transitionError("trip", string(t.Status), string(TripFinished))
	}
	t.Status = TripFinished
	t.FinishedAt = &now
	return nil
}

// closedWhenFull is true for trips that were finished by running out of
// seats rather than by the driver.
func (t *Trip) closedWhenFull() bool {
	return t.Status == TripFinished && t.StartedAt == nil
}

// ReserveSeat takes one seat. With closeWhenFull, a not-started trip that
// runs out of seats is marked finished.
func (t *Trip) ReserveSeat(closeWhenFull bool, now time.Time) error {
	if t.Status == TripFinished {
		return transitionError("trip", string(t.Status), "reserve seat")
	}
	if t.SeatsAvailable <= 0 {
		return ErrNoSeatsAvailable
	}
	t.SeatsAvailable--
	if closeWhenFull && t.SeatsAvailable == 0 && t.Status == TripNotStarted {
		t.Status = TripFinished
		t.FinishedAt = &now
	}
	return nil
}

// ReleaseSeat gives one seat back and reopens a trip that was closed
// because it was full.
func (t *Trip) ReleaseSeat(closeWhenFull bool) error {
	if t.Status == TripFinished {
		if !closeWhenFull || !t.closedWhenFull() {
			return transitionError("trip", string(t.Status), "release seat")
		}
		t.Status = TripNotStarted
		t.FinishedAt = nil
	}
	if t.SeatsTotal > 0 && t.SeatsAvailable >= t.SeatsTotal {
		return &ValidationError{Field: "cuposDisponibles", Message: "all seats are already free"}
	}
	t.SeatsAvailable++
	return nil
}
