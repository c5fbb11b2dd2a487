package weather

import (
	"context"
)

// Geocoder resolves a normalized location name to coordinates.
type Geocoder interface {
	Name() string
	Resolve(ctx context.Context, name string) (Coordinate, error)
}

// CitySearcher returns up to limit places matching a free-text query.
type CitySearcher interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// Forecaster fetches current conditions for a coordinate (e.g. Open-Meteo).
type Forecaster interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) (Current, error)
}

// Cache is the contract the snapshot cache must satisfy.
// Keys are produced by CacheKey.
type Cache interface {
	Get(key string) (Snapshot, bool)
	Put(key string, snapshot Snapshot)
}
