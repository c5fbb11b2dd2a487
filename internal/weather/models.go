package weather

import (
	"encoding/json"
	"time"
)

// TimestampLayout renders UTC instants with fixed millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Source identifies where a snapshot was served from.
type Source string

const (
	SourceOpenMeteo Source = "open-meteo"
	SourceCache     Source = "cache"
)

// UnitCelsius is the only temperature unit the service reports.
const UnitCelsius = "°C"

// Snapshot is one fetched (or cached) current-weather observation for a location.
type Snapshot struct {
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"`
	Unit        string    `json:"unit"`
	Conditions  string    `json:"conditions"`
	WindKph     float64   `json:"windKph"`
	Humidity    *int      `json:"humidity,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"` // always UTC
	Source      Source    `json:"source"`
}

// MarshalJSON writes FetchedAt in TimestampLayout, so whole seconds keep ".000".
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type plain Snapshot
	return json.Marshal(struct {
		plain
		FetchedAt string `json:"fetchedAt"`
	}{
		plain:     plain(s),
		FetchedAt: s.FetchedAt.UTC().Format(TimestampLayout),
	})
}

// Current is what a Forecaster returns: a snapshot without location and fetch time.
type Current struct {
	Temperature float64
	Unit        string
	Conditions  string
	WindKph     float64
	Humidity    *int
	Source      Source
}

// Coordinate is a resolved point for a location name. It is never stored.
type Coordinate struct {
	Lat          float64
	Lon          float64
	ResolvedName string
	Country      string
}

// Place is a single raw hit from a city-search provider.
type Place struct {
	Name    string
	Country string
	Admin1  string
	Lat     float64
	Lon     float64
}

// CitySuggestion is an autocomplete entry returned to the UI.
type CitySuggestion struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	State       string  `json:"state,omitempty"`
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

func suggestionFromPlace(p Place) CitySuggestion {
	display := p.Name
	if p.Admin1 != "" {
		display += ", " + p.Admin1
	}
	display += ", " + p.Country

	return CitySuggestion{
		Name:        p.Name,
		Country:     p.Country,
		State:       p.Admin1,
		DisplayName: display,
		Lat:         p.Lat,
		Lon:         p.Lon,
	}
}
