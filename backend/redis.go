// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/redis/go-redis/v9"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/match"
	"github.com/tochemey/cmframework/log"
)

// RedisClient is the subset of go-redis client methods used by RedisStore
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	MSet(ctx context.Context, values ...any) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	Close() error
}

// RedisConfig holds the connection settings of the redis store
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedisStore keeps every property as a redis string key. Filters are
// evaluated client side over the key listing since redis glob patterns
// cannot express regular expressions. Writes are retried with backoff.
type RedisStore struct {
	client     RedisClient
	prefix     string
	retries    int
	retryDelay time.Duration
	logger     log.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to redis and verifies the connection with PING
func NewRedisStore(ctx context.Context, config RedisConfig, opts ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("backend: redis %s ping failed: %w", config.Address, err)
	}
	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient creates a RedisStore backed by a pre-built client
func NewRedisStoreWithClient(client RedisClient, opts ...Option) *RedisStore {
	config := defaultOptions()
	for _, opt := range opts {
		opt.Apply(config)
	}
	return &RedisStore{
		client:     client,
		prefix:     config.keyPrefix,
		retries:    max(config.retries, 1),
		retryDelay: config.retryDelay,
		logger:     config.logger,
	}
}

// GetProperty implements Store
func (s *RedisStore) GetProperty(ctx context.Context, name string) (string, error) {
	value, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", gerrors.ErrPropertyNotFound
		}
		return "", err
	}
	return value, nil
}

// GetProperties implements Store
func (s *RedisStore) GetProperties(ctx context.Context, filter string) (map[string]string, error) {
	names, err := s.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	props := make(map[string]string, len(names))
	if len(names) == 0 {
		return props, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.key(name)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		// the key may have been deleted between KEYS and MGET
		if str, ok := value.(string); ok {
			props[names[i]] = str
		}
	}
	return props, nil
}

// SetProperty implements Store
func (s *RedisStore) SetProperty(ctx context.Context, name, value string) error {
	return s.SetProperties(ctx, map[string]string{name: value})
}

// SetProperties implements Store
func (s *RedisStore) SetProperties(ctx context.Context, props map[string]string) error {
	if len(props) == 0 {
		return nil
	}
	values := make([]any, 0, len(props)*2)
	for name, value := range props {
		values = append(values, s.key(name), value)
	}
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.MSet(ctx, values...).Err()
	})
}

// DeleteProperty implements Store
func (s *RedisStore) DeleteProperty(ctx context.Context, name string) error {
	var deleted int64
	if err := s.withRetry(ctx, func(ctx context.Context) error {
		count, err := s.client.Del(ctx, s.key(name)).Result()
		deleted = count
		return err
	}); err != nil {
		return err
	}
	if deleted == 0 {
		return gerrors.ErrPropertyNotFound
	}
	return nil
}

// DeleteProperties implements Store
func (s *RedisStore) DeleteProperties(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.key(name)
	}
	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, keys...).Err()
	})
}

// DeletePropertiesMatching implements Store
func (s *RedisStore) DeletePropertiesMatching(ctx context.Context, filter string) error {
	names, err := s.matching(ctx, filter)
	if err != nil {
		return err
	}
	return s.DeleteProperties(ctx, names)
}

// Close implements Store
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) matching(ctx context.Context, filter string) ([]string, error) {
	re, err := match.Compile(filter)
	if err != nil {
		return nil, err
	}
	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimPrefix(key, s.prefix)
		if re.MatchString(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *RedisStore) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := 0
	retrier := retry.NewRetrier(s.retries, s.retryDelay, 10*s.retryDelay)
	return retrier.RunContext(ctx, func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			s.logger.Warnf("redis write attempt %d failed: %v", attempt, err)
			return err
		}
		return nil
	})
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}
