package contract

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("kv: key not found")

// KVRepository stores opaque JSON blobs per client namespace.
type KVRepository interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}
