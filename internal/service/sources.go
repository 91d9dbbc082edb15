package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/alanyoungcy/impactsim/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// CachedElevation fronts an elevation source with a cache. Cache failures
// are logged and skipped; only the upstream source can fail a lookup.
type CachedElevation struct {
	src    domain.ElevationSource
	cache  domain.ElevationCache
	logger *slog.Logger
}

// NewCachedElevation wraps src. A nil cache disables caching.
func NewCachedElevation(src domain.ElevationSource, cache domain.ElevationCache, logger *slog.Logger) *CachedElevation {
	return &CachedElevation{src: src, cache: cache, logger: logger}
}

// Elevation implements domain.ElevationSource.
func (c *CachedElevation) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	r, err := c.SourcedElevation(ctx, lat, lon)
	return r.Value, err
}

// SourcedElevation implements domain.SourcedElevation.
func (c *CachedElevation) SourcedElevation(ctx context.Context, lat, lon float64) (_ domain.Sourced[float64], err error) {
	ctx, span := observability.Start(ctx, "elevation.lookup",
		attribute.Float64("lat", lat), attribute.Float64("lon", lon))
	defer func() { observability.End(span, err) }()

	if c.cache != nil {
		elev, err := c.cache.Get(ctx, lat, lon)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return domain.Cached(elev), nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.WarnContext(ctx, "elevation cache get failed",
				slog.Float64("lat", lat), slog.Float64("lon", lon),
				slog.String("error", err.Error()),
			)
		}
	}

	elev, err := c.src.Elevation(ctx, lat, lon)
	if err != nil {
		return domain.Sourced[float64]{}, fmt.Errorf("elevation lookup: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, lat, lon, elev); err != nil {
			c.logger.WarnContext(ctx, "elevation cache set failed",
				slog.Float64("lat", lat), slog.Float64("lon", lon),
				slog.String("error", err.Error()),
			)
		}
	}
	return domain.Live(elev), nil
}

// CachedBodies fronts an element source with a cache.
type CachedBodies struct {
	src    domain.ElementSource
	cache  domain.BodyCache
	logger *slog.Logger
}

// NewCachedBodies wraps src. A nil cache disables caching.
func NewCachedBodies(src domain.ElementSource, cache domain.BodyCache, logger *slog.Logger) *CachedBodies {
	return &CachedBodies{src: src, cache: cache, logger: logger}
}

// Lookup implements domain.ElementSource. Cache hits are marked
// domain.SourceCached.
func (c *CachedBodies) Lookup(ctx context.Context, designation string) (_ domain.SmallBody, err error) {
	ctx, span := observability.Start(ctx, "sbdb.lookup", attribute.String("designation", designation))
	defer func() { observability.End(span, err) }()

	if c.cache != nil {
		b, err := c.cache.Get(ctx, designation)
		if err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			b.Source = domain.SourceCached
			return b, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.WarnContext(ctx, "body cache get failed",
				slog.String("designation", designation),
				slog.String("error", err.Error()),
			)
		}
	}

	b, err := c.src.Lookup(ctx, designation)
	if err != nil {
		return domain.SmallBody{}, fmt.Errorf("element lookup %q: %w", designation, err)
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, b); err != nil {
			c.logger.WarnContext(ctx, "body cache set failed",
				slog.String("designation", designation),
				slog.String("error", err.Error()),
			)
		}
	}
	return b, nil
}

var (
	_ domain.ElevationSource  = (*CachedElevation)(nil)
	_ domain.SourcedElevation = (*CachedElevation)(nil)
	_ domain.ElementSource    = (*CachedBodies)(nil)
)
