// Package cache provides the TTL key/value store used for APOD lookups and
// calendar pages. Values are JSON encoded so the in-memory and Redis
// backends are interchangeable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a TTL key/value store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// GetJSON decodes the value stored under key into v.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key for ttl.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// ApodKey is the cache key for the entry of a single day.
func ApodKey(date time.Time) string {
	return "apod_" + date.Format("2006-01-02")
}

// CalendarKey is the cache key for a scraped calendar month.
func CalendarKey(year, month int) string {
	return fmt.Sprintf("apod_calendar_%d_%02d", year, month)
}
