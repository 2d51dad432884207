package domain

import "context"

// ReviewProvider fetches raw review records from the upstream
// property-management API. Records come back loosely typed; the
// normalizer owns mapping them into Review.
type ReviewProvider interface {
	FetchReviews(ctx context.Context) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
