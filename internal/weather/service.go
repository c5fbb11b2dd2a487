package weather

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/i474232898/weather-widgets/internal/common"
)

const (
	// DefaultLookupTimeout bounds the outbound calls of a single lookup.
	DefaultLookupTimeout = 8 * time.Second

	minSearchQueryLen = 2
	maxSuggestions    = 5
)

// Service orchestrates normalization, caching, geocoding and forecast lookups.
type Service struct {
	cache      Cache
	geocoder   Geocoder
	searcher   CitySearcher
	forecaster Forecaster
	logger     *zap.Logger

	timeout time.Duration
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for lookup failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLookupTimeout overrides DefaultLookupTimeout. Non-positive values are ignored.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock overrides time.Now, used to stamp FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new Service.
func NewService(cache Cache, geocoder Geocoder, searcher CitySearcher, forecaster Forecaster, opts ...Option) *Service {
	s := &Service{
		cache:      cache,
		geocoder:   geocoder,
		searcher:   searcher,
		forecaster: forecaster,
		logger:     zap.NewNop(),
		timeout:    DefaultLookupTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetWeatherForLocation returns current weather for a free-text location.
// Fresh cache entries short-circuit before any network call. Any resolution or
// fetch failure is returned as *LookupFailedError.
func (s *Service) GetWeatherForLocation(ctx context.Context, rawLocation string) (Snapshot, error) {
	if strings.TrimSpace(rawLocation) == "" {
		return Snapshot{}, ErrInvalidInput
	}

	normalized := Normalize(rawLocation)
	key := CacheKey(normalized)

	if cached, ok := s.cache.Get(key); ok {
		s.logger.Debug("returning cached weather", zap.String("location", normalized))
		return cached, nil
	}

	return s.fetchAndCache(ctx, normalized, key)
}

// Refresh fetches fresh weather for a location and writes it to the cache,
// ignoring any cached entry.
func (s *Service) Refresh(ctx context.Context, rawLocation string) (Snapshot, error) {
	if strings.TrimSpace(rawLocation) == "" {
		return Snapshot{}, ErrInvalidInput
	}

	normalized := Normalize(rawLocation)
	return s.fetchAndCache(ctx, normalized, CacheKey(normalized))
}

func (s *Service) fetchAndCache(ctx context.Context, normalized, key string) (Snapshot, error) {
	s.logger.Info("fetching fresh weather data", zap.String("location", normalized))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coord, err := s.geocoder.Resolve(ctx, normalized)
	if err != nil {
		return Snapshot{}, s.lookupFailed(normalized, fmt.Errorf("resolve: %w", err))
	}

	current, err := s.forecaster.Current(ctx, coord.Lat, coord.Lon)
	if err != nil {
		return Snapshot{}, s.lookupFailed(normalized, fmt.Errorf("%s current: %w", s.forecaster.Name(), err))
	}

	snapshot := buildSnapshot(normalized, coord, current, s.now())
	s.cache.Put(key, snapshot)

	return snapshot, nil
}

func (s *Service) lookupFailed(normalized string, cause error) error {
	s.logger.Error("weather fetch failed",
		zap.String("location", normalized),
		zap.Error(cause))
	return &LookupFailedError{Location: normalized, Err: cause}
}

// buildSnapshot assembles the snapshot returned to callers and stored in the cache.
func buildSnapshot(normalized string, coord Coordinate, current Current, now time.Time) Snapshot {
	name := coord.ResolvedName
	if name == "" {
		name = normalized
	}

	source := current.Source
	if source == "" {
		source = SourceOpenMeteo
	}

	return Snapshot{
		Location:    name,
		Temperature: common.RoundTo(current.Temperature, 1),
		Unit:        current.Unit,
		Conditions:  current.Conditions,
		WindKph:     common.RoundTo(current.WindKph, 1),
		Humidity:    current.Humidity,
		FetchedAt:   now.UTC().Truncate(time.Millisecond),
		Source:      source,
	}
}

// SearchCities returns up to five autocomplete suggestions for query.
// It never fails: short queries and upstream errors yield an empty slice.
func (s *Service) SearchCities(ctx context.Context, query string) []CitySuggestion {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minSearchQueryLen {
		return []CitySuggestion{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	places, err := s.searcher.Search(ctx, q, maxSuggestions)
	if err != nil {
		s.logger.Warn("city search failed", zap.String("query", q), zap.Error(err))
		return []CitySuggestion{}
	}

	suggestions := make([]CitySuggestion, 0, len(places))
	for _, p := range places {
		suggestions = append(suggestions, suggestionFromPlace(p))
	}
	return suggestions
}
