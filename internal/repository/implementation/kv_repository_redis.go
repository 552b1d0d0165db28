package implementation

import (
	"context"
	"errors"

	"design-companion-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "companion:kv:"

type RedisKVRepository struct {
	rdb *redis.Client
}

func NewRedisKVRepository(rdb *redis.Client) contract.KVRepository {
	return &RedisKVRepository{rdb: rdb}
}

func redisKey(namespace, key string) string {
	return redisKeyPrefix + namespace + ":" + key
}

func (r *RedisKVRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	val, err := r.rdb.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, contract.ErrKeyNotFound
	}
	return val, err
}

func (r *RedisKVRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	return r.rdb.Set(ctx, redisKey(namespace, key), value, 0).Err()
}

func (r *RedisKVRepository) Delete(ctx context.Context, namespace, key string) error {
	return r.rdb.Del(ctx, redisKey(namespace, key)).Err()
}
