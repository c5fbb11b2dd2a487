package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"resty.dev/v3"

	"github.com/i474232898/weather-widgets/internal/weather"
)

// DefaultGeocodingBaseURL is the public Open-Meteo geocoding API.
const DefaultGeocodingBaseURL = "https://geocoding-api.open-meteo.com/v1"

// OpenMeteoGeocoder resolves and searches city names with the Open-Meteo geocoding API.
// It implements both weather.Geocoder and weather.CitySearcher. Resolve and
// Search trip separate breakers so failing autocomplete never blocks lookups.
type OpenMeteoGeocoder struct {
	name           string
	client         *resty.Client
	resolveCircuit *gobreaker.CircuitBreaker
	searchCircuit  *gobreaker.CircuitBreaker
}

// NewOpenMeteoGeocoder creates a geocoder. An empty baseURL uses DefaultGeocodingBaseURL.
func NewOpenMeteoGeocoder(baseURL string, timeout time.Duration) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodingBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &OpenMeteoGeocoder{
		name:           "open-meteo-geocoding",
		client:         client,
		resolveCircuit: newCircuitBreaker("open-meteo-geocoding-resolve"),
		searchCircuit:  newCircuitBreaker("open-meteo-geocoding-search"),
	}
}

func (g *OpenMeteoGeocoder) Name() string {
	return g.name
}

// Close releases the underlying HTTP client.
func (g *OpenMeteoGeocoder) Close() {
	g.client.Close()
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Admin1    string  `json:"admin1"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// Resolve returns the first match for name. No match yields weather.ErrNotFound.
func (g *OpenMeteoGeocoder) Resolve(ctx context.Context, name string) (weather.Coordinate, error) {
	places, err := g.lookup(ctx, g.resolveCircuit, name, 1)
	if err != nil {
		return weather.Coordinate{}, err
	}
	if len(places) == 0 {
		return weather.Coordinate{}, fmt.Errorf("%w: %q", weather.ErrNotFound, name)
	}

	first := places[0]
	return weather.Coordinate{
		Lat:          first.Lat,
		Lon:          first.Lon,
		ResolvedName: first.Name,
		Country:      first.Country,
	}, nil
}

// Search returns up to limit places in upstream order. No match is an empty slice.
func (g *OpenMeteoGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.Place, error) {
	return g.lookup(ctx, g.searchCircuit, query, limit)
}

func (g *OpenMeteoGeocoder) lookup(ctx context.Context, cb *gobreaker.CircuitBreaker, query string, limit int) ([]weather.Place, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		resp, err := g.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"name":     query,
				"count":    strconv.Itoa(limit),
				"language": "en",
				"format":   "json",
			}).
			Get("/search")
		if err != nil {
			return nil, err
		}
		if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return nil, statusError(resp.StatusCode())
		}
		return resp.Bytes(), nil
	})
	if err != nil {
		return nil, breakerError(err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrUpstream)
	}

	var payload geocodingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode geocoding: %v", weather.ErrUpstream, err)
	}

	places := make([]weather.Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		places = append(places, weather.Place{
			Name:    r.Name,
			Country: r.Country,
			Admin1:  r.Admin1,
			Lat:     r.Latitude,
			Lon:     r.Longitude,
		})
	}
	return places, nil
}
