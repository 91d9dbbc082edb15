package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
	"github.com/redis/go-redis/v9"
)

// BodyCache implements domain.BodyCache using Redis hashes holding JSON.
//
// Key schema:
//
//	impactsim:body:{designation} - hash with field "data" containing JSON
type BodyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBodyCache creates a BodyCache whose entries expire after ttl.
func NewBodyCache(c *Client, ttl time.Duration) *BodyCache {
	if ttl <= 0 {
		ttl = defaultLookupTTL
	}
	return &BodyCache{rdb: c.Underlying(), ttl: ttl}
}

// bodyKey normalizes designations so "Apophis" and " apophis" share a slot.
func bodyKey(designation string) string {
	return keyPrefix + "body:" + strings.ToLower(strings.TrimSpace(designation))
}

// Set stores a body under its designation.
func (bc *BodyCache) Set(ctx context.Context, body domain.SmallBody) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("redis: marshal body %s: %w", body.Designation, err)
	}

	key := bodyKey(body.Designation)
	pipe := bc.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, bc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set body %s: %w", body.Designation, err)
	}
	return nil
}

// Get retrieves a body by designation, or domain.ErrNotFound on a miss.
func (bc *BodyCache) Get(ctx context.Context, designation string) (domain.SmallBody, error) {
	data, err := bc.rdb.HGet(ctx, bodyKey(designation), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SmallBody{}, domain.ErrNotFound
		}
		return domain.SmallBody{}, fmt.Errorf("redis: get body %s: %w", designation, err)
	}

	var body domain.SmallBody
	if err := json.Unmarshal(data, &body); err != nil {
		return domain.SmallBody{}, fmt.Errorf("redis: unmarshal body %s: %w", designation, err)
	}
	return body, nil
}

var _ domain.BodyCache = (*BodyCache)(nil)
