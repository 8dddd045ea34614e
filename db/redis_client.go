package db

import (
	"context"
	"errors"
)

// ErrNil is returned by Get when the key does not exist.
var ErrNil = errors.New("redis: nil")

// RedisClient is the storage surface used by the DAOs.
type RedisClient interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	// SetNX sets key only if it does not exist and reports whether it did.
	SetNX(ctx context.Context, key, value string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)

	AddLocationWithJSON(ctx context.Context, geoKey, memberKey string, lat, lon float64, data interface{}) error
	GetLocationsWithinRadius(ctx context.Context, key string, lat, lon, radiusKm float64) ([]string, error)
	RemoveLocation(ctx context.Context, geoKey, memberKey string) error

	// Sorted sets. ZRangeByLexPrefix assumes every member shares one score.
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key, member string) error
	ZRevRange(ctx context.Context, key string, limit int64) ([]string, error)
	ZRangeByLexPrefix(ctx context.Context, key, prefix string, limit int64) ([]string, error)

	Ping(ctx context.Context) error
}
