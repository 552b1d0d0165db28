// Package storetest provides KV repositories for tests.
package storetest

import (
	"context"
	"errors"
	"sync"

	"design-companion-be/internal/repository/memory"
)

var ErrInjected = errors.New("storetest: injected failure")

// FlakyRepo wraps the in-memory repository and fails writes on demand.
type FlakyRepo struct {
	*memory.KVRepository

	mu         sync.Mutex
	failWrites bool
	failReads  bool
	writes     int
}

func NewFlakyRepo() *FlakyRepo {
	return &FlakyRepo{KVRepository: memory.NewKVRepository()}
}

func (r *FlakyRepo) FailWrites(fail bool) {
	r.mu.Lock()
	r.failWrites = fail
	r.mu.Unlock()
}

func (r *FlakyRepo) FailReads(fail bool) {
	r.mu.Lock()
	r.failReads = fail
	r.mu.Unlock()
}

func (r *FlakyRepo) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *FlakyRepo) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	r.mu.Lock()
	fail := r.failReads
	r.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return r.KVRepository.Get(ctx, namespace, key)
}

func (r *FlakyRepo) Set(ctx context.Context, namespace, key string, value []byte) error {
	r.mu.Lock()
	fail := r.failWrites
	r.writes++
	r.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return r.KVRepository.Set(ctx, namespace, key, value)
}

func (r *FlakyRepo) Delete(ctx context.Context, namespace, key string) error {
	r.mu.Lock()
	fail := r.failWrites
	r.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return r.KVRepository.Delete(ctx, namespace, key)
}
