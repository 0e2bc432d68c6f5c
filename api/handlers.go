package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wheels/auth"
	"wheels/cache"
	"wheels/fare"
	"wheels/metrics"
	"wheels/models"
	"wheels/realtime"
	"wheels/trips"
)

const defaultRadiusKm = 3.0

// Handler serves the HTTP API on top of the trip services.
type Handler struct {
	Driver   *trips.DriverService
	Rider    *trips.RiderService
	Profiles *trips.ProfileService
	Fares    *fare.Estimator
	Devices  *cache.Devices
	Hub      *realtime.Hub
	Auth     *auth.JWTService
	Metrics  *metrics.Collector
}

func session(r *http.Request) models.Session {
	sess, _ := auth.SessionFrom(r.Context())
	return sess
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON encodes v before touching the response so an encoding failure
// still turns into a 500.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("api: encode response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(b, '\n'))
}

// CreateTrip publishes a trip for the calling driver
func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var in trips.TripInput
	if !decode(w, r, &in) {
		return
	}
	trip, err := h.Driver.CreateTrip(r.Context(), session(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

func (h *Handler) DriverTrips(w http.ResponseWriter, r *http.Request) {
	list, err := h.Driver.TripsByStatus(r.Context(), session(r), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) StartTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Driver.StartTrip(r.Context(), session(r), mux.Vars(r)["trip_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) FinishTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Driver.FinishTrip(r.Context(), session(r), mux.Vars(r)["trip_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// SetPointStatus accepts or denies a rider's pending pickup
func (h *Handler) SetPointStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"estado"`
	}
	if !decode(w, r, &body) {
		return
	}
	vars := mux.Vars(r)
	trip, err := h.Driver.SetPointStatus(r.Context(), session(r), vars["trip_id"], vars["rider_id"], body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) ReserveSeat(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Driver.ReserveSeat(r.Context(), session(r), mux.Vars(r)["trip_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) ReleaseSeat(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Driver.ReleaseSeat(r.Context(), session(r), mux.Vars(r)["trip_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) RiderTrips(w http.ResponseWriter, r *http.Request) {
	list, err := h.Rider.TripsByStatus(r.Context(), session(r), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// NearbyTrips lists open trips around ?lat=&lng=, within ?radius_km=
func (h *Handler) NearbyTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		http.Error(w, "Invalid lat", http.StatusBadRequest)
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		http.Error(w, "Invalid lng", http.StatusBadRequest)
		return
	}
	radius := defaultRadiusKm
	if s := q.Get("radius_km"); s != "" {
		if radius, err = strconv.ParseFloat(s, 64); err != nil {
			http.Error(w, "Invalid radius_km", http.StatusBadRequest)
			return
		}
	}

	list, err := h.Rider.NearbyTrips(r.Context(), session(r), lat, lng, radius)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) MyPoints(w http.ResponseWriter, r *http.Request) {
	list, err := h.Rider.MyTrips(r.Context(), session(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// RequestPickup appends a pending point for the calling rider
func (h *Handler) RequestPickup(w http.ResponseWriter, r *http.Request) {
	var in trips.PointInput
	if !decode(w, r, &in) {
		return
	}
	trip, err := h.Rider.RequestPickup(r.Context(), session(r), mux.Vars(r)["trip_id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

func (h *Handler) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := h.Rider.GetTrip(r.Context(), mux.Vars(r)["trip_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Profiles.Profile(r.Context(), session(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	var in trips.ProfileInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Profiles.UpsertProfile(r.Context(), session(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RegisterDevice stores a push token for the calling user
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := h.Devices.Register(r.Context(), session(r).UserID, body.Token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Device registered"})
}

func (h *Handler) RemoveDevice(w http.ResponseWriter, r *http.Request) {
	if err := h.Devices.Remove(r.Context(), session(r).UserID, mux.Vars(r)["token"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EstimateFare prices a ride between an address and the university
func (h *Handler) EstimateFare(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address      string `json:"direccion"`
		ToUniversity bool   `json:"haciaUniversidad"`
	}
	if !decode(w, r, &body) {
		return
	}
	est, err := h.Fares.Estimate(r.Context(), body.Address, body.ToUniversity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// Realtime upgrades to a websocket. Browsers cannot set headers on the
// handshake, so the token may also come in ?token=.
func (h *Handler) Realtime(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = auth.BearerToken(r)
	}
	sess, err := h.Auth.Session(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	h.Hub.ServeWS(w, r, sess)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil(list []*models.Trip) []*models.Trip {
	if list == nil {
		return []*models.Trip{}
	}
	return list
}
