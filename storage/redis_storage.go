package storage

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
)

const redisTimeout = 5 * time.Second

// RedisKeyValueStorage implements model.KeyValueStore on a redis server. Keys
// are stored as "<prefix><scope>:<key>".
type RedisKeyValueStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisKeyValueStorage connects to the configured redis server
func NewRedisKeyValueStorage(conf RedisConf) (*RedisKeyValueStorage, error) {
	if conf.Addr == "" {
		return nil, pkgerrors.New("redis storage requires an addr")
	}
	client := redis.NewClient(
		&redis.Options{
			Addr:     conf.Addr,
			Username: conf.Username,
			Password: conf.Password,
			DB:       conf.DB,
		},
	)
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrap(err, "could not connect to redis")
	}
	return &RedisKeyValueStorage{
		client: client,
		prefix: conf.Prefix,
	}, nil
}

func (s *RedisKeyValueStorage) redisKey(scope, key string) string {
	return s.prefix + scope + ":" + key
}

// Get returns the JSON value for a (scope, key). If not found, returns nil, nil.
func (s *RedisKeyValueStorage) Get(scope, key string) (datatypes.JSON, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	value, err := s.client.Get(ctx, s.redisKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores/replaces the value for a (scope, key).
func (s *RedisKeyValueStorage) Set(scope, key string, value datatypes.JSON) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return s.client.Set(ctx, s.redisKey(scope, key), []byte(value), 0).Err()
}

// Delete removes the entry for a (scope, key). No error if missing.
func (s *RedisKeyValueStorage) Delete(scope, key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return s.client.Del(ctx, s.redisKey(scope, key)).Err()
}

// GetAs retrieves and unmarshals the value for (scope, key) into out.
func (s *RedisKeyValueStorage) GetAs(scope, key string, out any) (bool, error) {
	return getAs(s, scope, key, out)
}

// SetAny marshals v to JSON and stores it at (scope, key).
func (s *RedisKeyValueStorage) SetAny(scope, key string, v any) error {
	return setAny(s, scope, key, v)
}

// Close closes the redis client
func (s *RedisKeyValueStorage) Close() error {
	return s.client.Close()
}
