package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry. All methods are safe on a nil
// Collector so callers never need to check.
type Collector struct {
	reg *prometheus.Registry

	TripsCreated       prometheus.Counter
	PointsAppended     prometheus.Counter
	PointStatusChanges *prometheus.CounterVec // status: accepted|denied
	TripTransitions    *prometheus.CounterVec // to: trip status
	SeatChanges        *prometheus.CounterVec // op: reserve|release
	StoreConflicts     prometheus.Counter
	NotificationsSent  prometheus.Counter
	NotificationErrs   prometheus.Counter
	WSClients          prometheus.Gauge
	RequestDuration    *prometheus.HistogramVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		TripsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wheels_trips_created_total",
			Help: "Total trips published by drivers.",
		}),
		PointsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wheels_points_appended_total",
			Help: "Total pickup requests appended to trips.",
		}),
		PointStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wheels_point_status_changes_total",
			Help: "Pickup requests resolved by drivers.",
		}, []string{"status"}),
		TripTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wheels_trip_transitions_total",
			Help: "Trip status transitions by target status.",
		}, []string{"to"}),
		SeatChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wheels_seat_changes_total",
			Help: "Seat reservations and releases.",
		}, []string{"op"}),
		StoreConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wheels_store_conflicts_total",
			Help: "Trip writes retried because of a concurrent update.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wheels_notifications_sent_total",
			Help: "Push notifications handed to the provider.",
		}),
		NotificationErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wheels_notification_errors_total",
			Help: "Push notifications that failed.",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wheels_ws_clients",
			Help: "Connected realtime clients.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wheels_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"method", "code"}),
	}

	reg.MustRegister(
		c.TripsCreated, c.PointsAppended, c.PointStatusChanges,
		c.TripTransitions, c.SeatChanges, c.StoreConflicts,
		c.NotificationsSent, c.NotificationErrs, c.WSClients,
		c.RequestDuration,
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) TripCreated() {
	if c != nil {
		c.TripsCreated.Inc()
	}
}

func (c *Collector) PointAppended() {
	if c != nil {
		c.PointsAppended.Inc()
	}
}

func (c *Collector) PointStatusChanged(status string) {
	if c != nil {
		c.PointStatusChanges.WithLabelValues(status).Inc()
	}
}

func (c *Collector) TripTransition(to string) {
	if c != nil {
		c.TripTransitions.WithLabelValues(to).Inc()
	}
}

func (c *Collector) SeatChanged(op string) {
	if c != nil {
		c.SeatChanges.WithLabelValues(op).Inc()
	}
}

func (c *Collector) StoreConflict() {
	if c != nil {
		c.StoreConflicts.Inc()
	}
}

func (c *Collector) NotificationResult(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.NotificationErrs.Inc()
		return
	}
	c.NotificationsSent.Inc()
}

func (c *Collector) WSClientsAdd(delta float64) {
	if c != nil {
		c.WSClients.Add(delta)
	}
}

func (c *Collector) ObserveRequest(method string, code int, d time.Duration) {
	if c != nil {
		c.RequestDuration.WithLabelValues(method, strconv.Itoa(code)).Observe(d.Seconds())
	}
}
