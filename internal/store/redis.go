package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces brief keys inside a shared Redis database.
const DefaultRedisPrefix = "brief:"

// RedisStore keeps blobs as Redis string values.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption customises a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL expires every saved key after ttl. Zero keeps keys forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Ping verifies the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return &StorageError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Load returns the value for key.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(OpLoad, key); err != nil {
		return nil, false, err
	}
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &StorageError{Op: OpLoad, Key: key, Err: err}
	}
	return data, true, nil
}

// Save sets the value for key.
func (s *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	if err := validateKey(OpSave, key); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return &StorageError{Op: OpSave, Key: key, Err: err}
	}
	return nil
}

// Clear deletes key.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := validateKey(OpClear, key); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return &StorageError{Op: OpClear, Key: key, Err: err}
	}
	return nil
}

// ClearAll deletes every key with a single DEL. A failed DEL leaves the
// state of each key unknown, so all of them are reported.
func (s *RedisStore) ClearAll(ctx context.Context, keys []string) error {
	failed := map[string]error{}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := validateKey(OpClear, key); err != nil {
			failed[key] = ErrInvalidKey
			continue
		}
		names = append(names, s.key(key))
	}
	if len(names) > 0 {
		if err := s.client.Del(ctx, names...).Err(); err != nil {
			for _, key := range keys {
				if _, bad := failed[key]; !bad {
					failed[key] = err
				}
			}
		}
	}
	return clearAllError(failed)
}
