package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"wheels/metrics"
)

// Notification is what the push provider delivers to a device.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Pusher delivers a notification to one device token.
type Pusher interface {
	Push(ctx context.Context, token string, n Notification) error
}

// TokenSource lists the device tokens of a user.
type TokenSource interface {
	Tokens(ctx context.Context, userID string) ([]string, error)
}

// LogPusher stands in for a real push provider.
type LogPusher struct{}

func (LogPusher) Push(ctx context.Context, token string, n Notification) error {
	log.Printf("push token=%s title=%q body=%q", token, n.Title, n.Body)
	return nil
}

// Dispatcher fans point events out to the driver's devices.
type Dispatcher struct {
	tokens  TokenSource
	pusher  Pusher
	metrics *metrics.Collector
}

func NewDispatcher(tokens TokenSource, pusher Pusher, m *metrics.Collector) *Dispatcher {
	return &Dispatcher{tokens: tokens, pusher: pusher, metrics: m}
}

// Subscribe starts consuming point events. Unsubscribe the returned
// subscription to stop.
func (d *Dispatcher) Subscribe(nc *nats.Conn, prefix string) (*nats.Subscription, error) {
	return nc.Subscribe(pointsSubject(prefix), func(msg *nats.Msg) {
		if err := d.Handle(context.Background(), msg.Data); err != nil {
			log.Printf("notify: dispatch failed: %v", err)
		}
	})
}

// Handle decodes one event and pushes it to every device of the driver.
// It returns the first delivery error after trying all devices.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	var ev PointAppendedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	tokens, err := d.tokens.Tokens(ctx, ev.DriverID)
	if err != nil {
		return fmt.Errorf("tokens for %s: %w", ev.DriverID, err)
	}

	n := Notification{
		Title: "Nueva solicitud de recogida",
		Body:  fmt.Sprintf("Un pasajero quiere que lo recojas en %s", ev.Address),
		Data:  map[string]string{"tripId": ev.TripID, "riderId": ev.RiderID},
	}
	var first error
	for _, token := range tokens {
		err := d.pusher.Push(ctx, token, n)
		d.metrics.NotificationResult(err)
		if err != nil && first == nil {
			first = fmt.Errorf("push to %s: %w", token, err)
		}
	}
	return first
}
