// Package directions talks to a Google-Maps-compatible geocoding and
// directions API.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wheels/config"
	"wheels/models"
)

var (
	// ErrDisabled is returned when no API key is configured
	ErrDisabled = errors.New("maps client disabled")

	ErrNoResults = errors.New("no results")
)

// Route is the first leg of the best route between two points.
type Route struct {
	DistanceMeters int           `json:"distanceMeters"`
	Duration       time.Duration `json:"duration"`
	Polyline       string        `json:"polyline"`
}

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(cfg config.MapsConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
	ErrorMessage string `json:"error_message"`
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("maps request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func checkStatus(status, msg string) error {
	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS", "NOT_FOUND":
		return ErrNoResults
	default:
		return fmt.Errorf("maps status %s: %s", status, msg)
	}
}

// Geocode resolves a free-text address.
func (c *Client) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	var res geocodeResponse
	if err := c.get(ctx, "/geocode/json", url.Values{"address": {address}}, &res); err != nil {
		return models.Coordinates{}, err
	}
	if err := checkStatus(res.Status, res.ErrorMessage); err != nil {
		return models.Coordinates{}, err
	}
	if len(res.Results) == 0 {
		return models.Coordinates{}, ErrNoResults
	}
	loc := res.Results[0].Geometry.Location
	return models.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func latLng(c models.Coordinates) string {
	return fmt.Sprintf("%f,%f", c.Lat, c.Lng)
}

// Route asks for a driving route between two points.
func (c *Client) Route(ctx context.Context, from, to models.Coordinates) (Route, error) {
	var res directionsResponse
	q := url.Values{
		"origin":      {latLng(from)},
		"destination": {latLng(to)},
		"mode":        {"driving"},
	}
	if err := c.get(ctx, "/directions/json", q, &res); err != nil {
		return Route{}, err
	}
	if err := checkStatus(res.Status, res.ErrorMessage); err != nil {
		return Route{}, err
	}
	if len(res.Routes) == 0 || len(res.Routes[0].Legs) == 0 {
		return Route{}, ErrNoResults
	}
	leg := res.Routes[0].Legs[0]
	return Route{
		DistanceMeters: leg.Distance.Value,
		Duration:       time.Duration(leg.Duration.Value) * time.Second,
		Polyline:       res.Routes[0].OverviewPolyline.Points,
	}, nil
}
