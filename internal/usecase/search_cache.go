package usecase

import (
	"context"
	"time"
)

// SearchCache is the subset of the Redis cache the job use cases rely on. A
// bypassed cache always misses and never errors.
type SearchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidateJobs(ctx context.Context) error
}

// Locker guards work that only one instance should run at a time.
type Locker interface {
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Clock returns the current instant. Use cases truncate it to the storage
// precision before use.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now()
}

func (c Clock) now() time.Time {
	if c == nil {
		return systemClock().UTC().Truncate(time.Microsecond)
	}
	return c().UTC().Truncate(time.Microsecond)
}
