package api

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"wheels/auth"
	"wheels/models"
)

func RegisterRoutes(h *Handler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", Healthz).Methods("GET")
	router.Handle("/metrics", h.Metrics.Handler()).Methods("GET")
	router.HandleFunc("/ws", h.Realtime).Methods("GET")

	// Driver endpoints
	driver := router.PathPrefix("/driver").Subrouter()
	driver.Use(h.Auth.Middleware, auth.RequireRole(models.RoleDriver))
	driver.HandleFunc("/trips", h.CreateTrip).Methods("POST")
	driver.HandleFunc("/trips", h.DriverTrips).Methods("GET")
	driver.HandleFunc("/trips/{trip_id}/start", h.StartTrip).Methods("POST")
	driver.HandleFunc("/trips/{trip_id}/finish", h.FinishTrip).Methods("POST")
	driver.HandleFunc("/trips/{trip_id}/points/{rider_id}", h.SetPointStatus).Methods("PUT")
	driver.HandleFunc("/trips/{trip_id}/seats/reserve", h.ReserveSeat).Methods("POST")
	driver.HandleFunc("/trips/{trip_id}/seats/release", h.ReleaseSeat).Methods("POST")

	// Rider endpoints
	rider := router.PathPrefix("/rider").Subrouter()
	rider.Use(h.Auth.Middleware, auth.RequireRole(models.RoleRider))
	rider.HandleFunc("/trips", h.RiderTrips).Methods("GET")
	rider.HandleFunc("/trips/nearby", h.NearbyTrips).Methods("GET")
	rider.HandleFunc("/trips/{trip_id}/points", h.RequestPickup).Methods("POST")
	rider.HandleFunc("/points", h.MyPoints).Methods("GET")

	// Endpoints for any signed-in user
	signedIn := router.NewRoute().Subrouter()
	signedIn.Use(h.Auth.Middleware)
	signedIn.HandleFunc("/trips/{trip_id}", h.GetTrip).Methods("GET")
	signedIn.HandleFunc("/me/profile", h.GetProfile).Methods("GET")
	signedIn.HandleFunc("/me/profile", h.PutProfile).Methods("PUT")
	signedIn.HandleFunc("/me/devices", h.RegisterDevice).Methods("POST")
	signedIn.HandleFunc("/me/devices/{token}", h.RemoveDevice).Methods("DELETE")
	signedIn.HandleFunc("/fares/estimate", h.EstimateFare).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	return handlers.LoggingHandler(log.Writer(), cors(h.instrument(router)))
}

// instrument records request latency by method and status code.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.Metrics.ObserveRequest(r.Method, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}
