package kv

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

// compareAndRemoveScript deletes KEYS[1] only if it still equals ARGV[1].
const compareAndRemoveScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisStorage keeps items as plain redis string keys.
type RedisStorage struct {
	// client is the rueidis connection.
	client rueidis.Client
	// compareAndRemove runs compareAndRemoveScript via EVALSHA.
	compareAndRemove *rueidis.Lua
}

// OpenRedis connects to the redis server at address and selects db.
func OpenRedis(address string, db int) (*RedisStorage, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{address},
		SelectDB:    db,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RedisStorage{
		client:           client,
		compareAndRemove: rueidis.NewLuaScript(compareAndRemoveScript),
	}, nil
}

// GetItem returns the value stored under key.
func (s *RedisStorage) GetItem(ctx context.Context, key string) (string, error) {
	value, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("redis get: %w", err)
	}

	return value, nil
}

// SetItem stores value under key.
func (s *RedisStorage) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Do(ctx, s.client.B().Set().Key(key).Value(value).Build()).Error(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// RemoveItem deletes key if present.
func (s *RedisStorage) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// CompareAndRemove deletes key when it holds expected, atomically on the server.
func (s *RedisStorage) CompareAndRemove(ctx context.Context, key, expected string) (bool, error) {
	removed, err := s.compareAndRemove.Exec(ctx, s.client, []string{key}, []string{expected}).AsInt64()
	if err != nil {
		return false, fmt.Errorf("redis compare and delete: %w", err)
	}

	return removed > 0, nil
}

// Close closes the client.
func (s *RedisStorage) Close() error {
	s.client.Close()

	return nil
}
