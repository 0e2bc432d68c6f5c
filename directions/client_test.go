package directions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wheels/config"
	"wheels/models"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		if r.URL.Query().Get("address") == "nowhere" {
			w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
			return
		}
		w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":4.6015,"lng":-74.0655}}}]}`))
	})
	mux.HandleFunc("/directions/json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4.598100,-74.076000", r.URL.Query().Get("origin"))
		w.Write([]byte(`{"status":"OK","routes":[{"legs":[{"distance":{"value":2350},"duration":{"value":540}}],
			"overview_polyline":{"points":"abc"}}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGeocode(t *testing.T) {
	srv := newServer(t)
	c := NewClient(config.MapsConfig{BaseURL: srv.URL + "/", APIKey: "secret"})

	got, err := c.Geocode(context.Background(), "Cra 1 #18A-12")
	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Lat: 4.6015, Lng: -74.0655}, got)

	_, err = c.Geocode(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestRoute(t *testing.T) {
	srv := newServer(t)
	c := NewClient(config.MapsConfig{BaseURL: srv.URL, APIKey: "secret"})

	r, err := c.Route(context.Background(),
		models.Coordinates{Lat: 4.5981, Lng: -74.0760},
		models.Coordinates{Lat: 4.6015, Lng: -74.0655})
	require.NoError(t, err)
	assert.Equal(t, 2350, r.DistanceMeters)
	assert.Equal(t, 9*time.Minute, r.Duration)
	assert.Equal(t, "abc", r.Polyline)
}

func TestDisabledWithoutKey(t *testing.T) {
	c := NewClient(config.MapsConfig{BaseURL: "http://127.0.0.1:1"})
	assert.False(t, c.Enabled())
	_, err := c.Geocode(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDisabled)
}
