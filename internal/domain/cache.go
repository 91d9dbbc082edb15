package domain

import (
	"context"
	"time"
)

// ElevationCache memoizes elevation lookups by rounded coordinate.
type ElevationCache interface {
	Get(ctx context.Context, lat, lon float64) (float64, error)
	Set(ctx context.Context, lat, lon, elevationM float64) error
}

// BodyCache memoizes small-body lookups by designation.
type BodyCache interface {
	Get(ctx context.Context, designation string) (SmallBody, error)
	Set(ctx context.Context, body SmallBody) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// JournalEntry is one event kept in a bounded journal stream.
type JournalEntry struct {
	ID      string
	Payload []byte
}

// SignalBus carries live events over pub/sub and keeps a bounded journal of
// completions that late subscribers can replay.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe accepts glob patterns such as "ch:study:*". The channel closes
	// when ctx ends.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Append(ctx context.Context, stream string, payload []byte) (id string, err error)
	// Recent returns up to n journal entries, oldest first.
	Recent(ctx context.Context, stream string, n int) ([]JournalEntry, error)
}
