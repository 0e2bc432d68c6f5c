package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"wheels/models"
)

// PointAppendedEvent is published every time a trip's point list grows.
type PointAppendedEvent struct {
	TripID     string       `json:"tripId"`
	DriverID   string       `json:"driverId"`
	RiderID    string       `json:"riderId"`
	Address    string       `json:"direccion"`
	PointCount int          `json:"pointCount"`
	Point      models.Point `json:"point"`
	At         time.Time    `json:"at"`
}

func pointsSubject(prefix string) string {
	return fmt.Sprintf("%s.points.appended", prefix)
}

// Connect dials NATS with reconnect logging.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("wheels"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("nats reconnected url=%s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("nats closed")
		}),
	)
}

// Publisher emits point events on NATS.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return &Publisher{nc: nc, subject: pointsSubject(prefix)}
}

func (p *Publisher) PointAppended(ctx context.Context, trip *models.Trip, point models.Point) error {
	b, err := json.Marshal(PointAppendedEvent{
		TripID:     trip.ID,
		DriverID:   trip.DriverID,
		RiderID:    point.RiderID,
		Address:    point.Address,
		PointCount: len(trip.Points),
		Point:      point,
		At:         time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, b)
}
