package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"design-companion-be/internal/pkg/logger"
	"design-companion-be/internal/repository/contract"
	"design-companion-be/pkg/apperror"
)

const (
	KeySessions     = "dc_v2_sessions"
	KeyStoreName    = "dc_store_name"
	KeyAuth         = "dc_auth"
	KeyLibraryFiles = "dc_library_files"
)

// OwnedKeys is every key this application writes. Reset removes exactly these.
var OwnedKeys = []string{KeySessions, KeyStoreName, KeyAuth, KeyLibraryFiles}

const logModule = "STORE"

// ErrClosed is returned by writes through an adapter whose workspace was
// reset or evicted.
var ErrClosed = errors.New("store adapter is closed")

// Adapter persists JSON values for one client namespace.
type Adapter struct {
	repo      contract.KVRepository
	namespace string
	logger    logger.ILogger

	mu     sync.RWMutex
	closed bool
}

func NewAdapter(repo contract.KVRepository, namespace string, log logger.ILogger) *Adapter {
	return &Adapter{repo: repo, namespace: namespace, logger: log}
}

func (a *Adapter) Namespace() string {
	return a.namespace
}

// Close stops all further writes. It waits for writes already in progress,
// so once it returns nothing written through a can land in the backend.
func (a *Adapter) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

func (a *Adapter) Closed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.closed
}

// Get decodes the value under key. Missing keys, backend failures and
// undecodable values all yield fallback.
func Get[T any](ctx context.Context, a *Adapter, key string, fallback T) T {
	value, found, err := Load[T](ctx, a, key)
	if err != nil || !found {
		return fallback
	}
	return value
}

// Load is Get for callers that must tell a missing key from a broken one.
// found is false for missing keys; err is set for read or decode failures.
func Load[T any](ctx context.Context, a *Adapter, key string) (value T, found bool, err error) {
	raw, err := a.repo.Get(ctx, a.namespace, key)
	if err != nil {
		if errors.Is(err, contract.ErrKeyNotFound) {
			return value, false, nil
		}
		a.logger.Warn(logModule, "Failed to read key, using fallback", map[string]interface{}{
			"namespace": a.namespace,
			"key":       key,
			"error":     err.Error(),
		})
		return value, false, apperror.Wrap(apperror.KindUnknown, err, "failed to read "+key)
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		a.logger.Warn(logModule, "Stored value is not valid JSON, using fallback", map[string]interface{}{
			"namespace": a.namespace,
			"key":       key,
			"error":     err.Error(),
		})
		return value, true, apperror.Wrap(apperror.KindValidation, err, "stored "+key+" is corrupted")
	}
	return value, true, nil
}

// Set encodes and writes value. A failure is logged and returned; the caller
// keeps its in-memory state.
func (a *Adapter) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.Error(logModule, "Failed to encode value", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return apperror.Wrap(apperror.KindValidation, err, "failed to encode "+key)
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.Warn(logModule, "Dropped write to a closed workspace", map[string]interface{}{
			"namespace": a.namespace,
			"key":       key,
		})
		return ErrClosed
	}
	if err := a.repo.Set(ctx, a.namespace, key, raw); err != nil {
		a.logger.Error(logModule, "Failed to write key", map[string]interface{}{
			"namespace": a.namespace,
			"key":       key,
			"error":     err.Error(),
		})
		return apperror.Wrap(apperror.KindQuota, err, "failed to write "+key+" to storage")
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, key string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	if err := a.repo.Delete(ctx, a.namespace, key); err != nil {
		a.logger.Error(logModule, "Failed to remove key", map[string]interface{}{
			"namespace": a.namespace,
			"key":       key,
			"error":     err.Error(),
		})
		return apperror.Wrap(apperror.KindQuota, err, "failed to remove "+key+" from storage")
	}
	return nil
}

// Reset removes every owned key, continuing past individual failures.
func (a *Adapter) Reset(ctx context.Context) error {
	var errs []error
	for _, key := range OwnedKeys {
		if err := a.Remove(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
