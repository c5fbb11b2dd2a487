package weather

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// GeocoderChain tries each geocoder in order until one resolves the name.
// Every failure is logged; if all fail the errors are joined, so callers can
// still match ErrNotFound or ErrUpstream with errors.Is.
type GeocoderChain struct {
	geocoders []Geocoder
	logger    *zap.Logger
}

// NewGeocoderChain creates a chain over the given geocoders, tried in order.
func NewGeocoderChain(logger *zap.Logger, geocoders ...Geocoder) *GeocoderChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeocoderChain{
		geocoders: geocoders,
		logger:    logger,
	}
}

func (c *GeocoderChain) Name() string {
	return "chain"
}

func (c *GeocoderChain) Resolve(ctx context.Context, name string) (Coordinate, error) {
	if len(c.geocoders) == 0 {
		return Coordinate{}, fmt.Errorf("%w: no geocoders configured", ErrUpstream)
	}

	var errs []error
	for _, g := range c.geocoders {
		coord, err := g.Resolve(ctx, name)
		if err == nil {
			return coord, nil
		}

		c.logger.Warn("geocoder failed",
			zap.String("geocoder", g.Name()),
			zap.String("location", name),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", g.Name(), err))

		if ctx.Err() != nil {
			break
		}
	}

	return Coordinate{}, errors.Join(errs...)
}
