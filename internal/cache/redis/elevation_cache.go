package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/redis/go-redis/v9"
)

// defaultLookupTTL applies when no TTL is configured.
const defaultLookupTTL = 24 * time.Hour

// ElevationCache implements domain.ElevationCache.
//
// Key schema:
//
//	impactsim:elev:{lat}:{lon} - string elevation in meters, coordinates
//	                             rounded to 3 decimals (~110 m)
type ElevationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewElevationCache creates an ElevationCache whose entries expire after ttl.
func NewElevationCache(c *Client, ttl time.Duration) *ElevationCache {
	if ttl <= 0 {
		ttl = defaultLookupTTL
	}
	return &ElevationCache{rdb: c.Underlying(), ttl: ttl}
}

func elevationKey(lat, lon float64) string {
	return keyPrefix + "elev:" + strconv.FormatFloat(lat, 'f', 3, 64) + ":" + strconv.FormatFloat(lon, 'f', 3, 64)
}

// Get returns the cached elevation, or domain.ErrNotFound on a miss.
func (ec *ElevationCache) Get(ctx context.Context, lat, lon float64) (float64, error) {
	v, err := ec.rdb.Get(ctx, elevationKey(lat, lon)).Float64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("redis: get elevation %.3f,%.3f: %w", lat, lon, err)
	}
	return v, nil
}

// Set stores a live elevation reading.
func (ec *ElevationCache) Set(ctx context.Context, lat, lon, elevationM float64) error {
	val := strconv.FormatFloat(elevationM, 'f', -1, 64)
	if err := ec.rdb.Set(ctx, elevationKey(lat, lon), val, ec.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set elevation %.3f,%.3f: %w", lat, lon, err)
	}
	return nil
}

var _ domain.ElevationCache = (*ElevationCache)(nil)
