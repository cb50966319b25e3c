package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LoadJSON is GetOrLoad for a JSON-encoded T. An entry that no longer decodes
// into T is dropped and the value is loaded fresh.
func LoadJSON[T any](ctx context.Context, c Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		_ = c.Invalidate(ctx, key)
		v, lerr := load(ctx)
		if lerr != nil {
			return zero, fmt.Errorf("cache %s: %w", key, lerr)
		}
		return v, nil
	}
	return out, nil
}
