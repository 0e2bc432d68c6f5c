package fare

import (
	"context"
	"errors"
	"fmt"
	"math"

	"wheels/config"
	"wheels/directions"
	"wheels/geohash"
	"wheels/models"
)

// Calculator prices trips linearly on distance: base + perKm * km,
// rounded to the nearest RoundTo.
type Calculator struct {
	Base    float64
	PerKm   float64
	RoundTo float64
}

func NewCalculator(cfg config.FareConfig) Calculator {
	return Calculator{Base: cfg.Base, PerKm: cfg.PerKm, RoundTo: cfg.RoundTo}
}

func (c Calculator) Price(km float64) models.Price {
	if km < 0 {
		km = 0
	}
	p := c.Base + c.PerKm*km
	if c.RoundTo > 0 {
		p = math.Round(p/c.RoundTo) * c.RoundTo
	}
	return models.Price(p)
}

// Router is the part of the maps client the estimator needs.
type Router interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
	Route(ctx context.Context, from, to models.Coordinates) (directions.Route, error)
}

type Estimate struct {
	Price      models.Price       `json:"precio"`
	DistanceKm float64            `json:"distanciaKm"`
	Minutes    float64            `json:"minutos,omitempty"`
	From       models.Coordinates `json:"origen"`
	To         models.Coordinates `json:"destino"`
	Polyline   string             `json:"polyline,omitempty"`
	// Straight is true when the distance is a straight line because no
	// route could be fetched.
	Straight bool `json:"lineaRecta"`
}

// Estimator prices a trip between an address and the university.
type Estimator struct {
	calc       Calculator
	maps       Router
	university models.Coordinates
}

func NewEstimator(calc Calculator, maps Router, university models.Coordinates) *Estimator {
	return &Estimator{calc: calc, maps: maps, university: university}
}

// Estimate geocodes address and prices the ride to (or from) the university.
func (e *Estimator) Estimate(ctx context.Context, address string, toUniversity bool) (*Estimate, error) {
	if address == "" {
		return nil, &models.ValidationError{Field: "direccion", Message: "is required"}
	}
	point, err := e.maps.Geocode(ctx, address)
	if errors.Is(err, directions.ErrNoResults) {
		return nil, &models.ValidationError{Field: "direccion", Message: "address not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}

	from, to := point, e.university
	if !toUniversity {
		from, to = e.university, point
	}

	est := &Estimate{From: from, To: to}
	route, err := e.maps.Route(ctx, from, to)
	if err != nil {
		est.Straight = true
		est.DistanceKm = geohash.Haversine(from.Lat, from.Lng, to.Lat, to.Lng)
	} else {
		est.DistanceKm = float64(route.DistanceMeters) / 1000
		est.Minutes = route.Duration.Minutes()
		est.Polyline = route.Polyline
	}
	est.Price = e.calc.Price(est.DistanceKm)
	return est, nil
}
