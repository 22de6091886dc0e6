package layouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-viewgen/pkg/dashboard"
)

// DefaultKeyPrefix namespaces layout keys.
const DefaultKeyPrefix = "viewgen:layout:"

// Redis stores each layout as a JSON string under prefix+userID.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis uses DefaultKeyPrefix when prefix is empty.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, userID string) (dashboard.Layout, error) {
	data, err := r.client.Get(ctx, r.prefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return dashboard.Layout{}, ErrNotFound
	}
	if err != nil {
		return dashboard.Layout{}, fmt.Errorf("layouts: get %s: %w", userID, err)
	}
	return decode(userID, data)
}

func (r *Redis) Save(ctx context.Context, userID string, layout dashboard.Layout) error {
	data, err := prepare(userID, layout)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.prefix+userID, data, 0).Err(); err != nil {
		return fmt.Errorf("layouts: save %s: %w", userID, err)
	}
	return nil
}
