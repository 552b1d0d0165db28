package memory

import (
	"context"

	"design-companion-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// KVRepository keeps entries for the life of the process.
type KVRepository struct {
	cache *cache.Cache
}

func NewKVRepository() *KVRepository {
	return &KVRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func cacheKey(namespace, key string) string {
	return namespace + "/" + key
}

func (r *KVRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if x, found := r.cache.Get(cacheKey(namespace, key)); found {
		stored := x.([]byte)
		out := make([]byte, len(stored))
		copy(out, stored)
		return out, nil
	}
	return nil, contract.ErrKeyNotFound
}

func (r *KVRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	r.cache.Set(cacheKey(namespace, key), stored, cache.NoExpiration)
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, namespace, key string) error {
	r.cache.Delete(cacheKey(namespace, key))
	return nil
}
