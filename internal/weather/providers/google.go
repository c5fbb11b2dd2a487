package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-widgets/internal/common"
	"github.com/i474232898/weather-widgets/internal/weather"
)

// geocodeFunc matches geocoder.Geocoding; swapped in tests.
type geocodeFunc func(address geocoder.Address) (geocoder.Location, error)

// GoogleGeocoder resolves city names with the Google Geocoding API.
// It is meant as a fallback entry in a weather.GeocoderChain.
type GoogleGeocoder struct {
	name    string
	apiKey  string
	geocode geocodeFunc
}

// NewGoogleGeocoder creates a geocoder. The geocoder package reads its key from
// a package variable, so it is set here once per process.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	return &GoogleGeocoder{
		name:    "google-geocoding",
		apiKey:  apiKey,
		geocode: geocoder.Geocoding,
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, name string) (weather.Coordinate, error) {
	if g.apiKey == "" {
		return weather.Coordinate{}, fmt.Errorf("%w: google geocoder api key is not configured", weather.ErrUpstream)
	}
	if err := ctx.Err(); err != nil {
		return weather.Coordinate{}, fmt.Errorf("%w: %w", weather.ErrUpstream, err)
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)

	// The upstream call takes no context; a hung request only leaks its own goroutine.
	go func() {
		loc, err := g.geocode(geocoder.Address{City: name})
		done <- result{loc: loc, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return weather.Coordinate{}, fmt.Errorf("%w: %w", weather.ErrUpstream, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		if isNoResults(res.err) {
			return weather.Coordinate{}, fmt.Errorf("%w: %q", weather.ErrNotFound, name)
		}
		return weather.Coordinate{}, fmt.Errorf("%w: %v", weather.ErrUpstream, res.err)
	}

	if res.loc.Latitude == 0 && res.loc.Longitude == 0 {
		return weather.Coordinate{}, fmt.Errorf("%w: %q", weather.ErrNotFound, name)
	}

	return weather.Coordinate{
		Lat:          res.loc.Latitude,
		Lon:          res.loc.Longitude,
		ResolvedName: name,
	}, nil
}

func isNoResults(err error) bool {
	return common.HasAny(strings.ToLower(err.Error()), "zero_results", "no results")
}
