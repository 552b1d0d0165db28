// Package auth tracks the role a client selected. There are no credentials;
// selecting a role is the whole login.
package auth

import (
	"context"
	"sync"
	"time"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	"design-companion-be/pkg/store"
)

const (
	ErrSaveAuth  = "Failed to save authentication state"
	ErrClearAuth = "Failed to clear authentication state"
	ErrLoadAuth  = "Failed to load authentication state"

	logModule = "AUTH"
)

type Manager struct {
	mu     sync.RWMutex
	store  *store.Adapter
	logger logger.ILogger
	state  entity.AuthState
	now    func() time.Time
}

// NewManager restores a previous selection. A stored record without a usable
// role falls back to ARCHITECT.
func NewManager(ctx context.Context, adapter *store.Adapter, log logger.ILogger) *Manager {
	m := &Manager{
		store:  adapter,
		logger: log,
		state:  entity.AuthState{Role: entity.UserRoleArchitect},
		now:    time.Now,
	}

	saved, found, err := store.Load[entity.PersistedAuth](ctx, adapter, store.KeyAuth)
	switch {
	case err != nil:
		m.state.Error = ErrLoadAuth
		log.Warn(logModule, "Error loading auth state", map[string]interface{}{
			"namespace": adapter.Namespace(),
			"error":     err.Error(),
		})
	case found:
		m.state.IsAuthenticated = true
		if saved.Role.Valid() {
			m.state.Role = saved.Role
		}
	}
	return m
}

func (m *Manager) Login(ctx context.Context, role entity.UserRole) error {
	if !role.Valid() {
		return apperror.New(apperror.KindValidation, "unknown role "+string(role))
	}

	record := entity.PersistedAuth{Role: role, Timestamp: m.now().UnixMilli()}
	if err := m.store.Set(ctx, store.KeyAuth, record); err != nil {
		m.SetError(ErrSaveAuth)
		return apperror.Wrap(apperror.KindCredential, err, ErrSaveAuth)
	}

	m.mu.Lock()
	m.state = entity.AuthState{IsAuthenticated: true, Role: role}
	m.mu.Unlock()

	m.logger.Info(logModule, "Role selected", map[string]interface{}{
		"namespace": m.store.Namespace(),
		"role":      role,
	})
	return nil
}

func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Remove(ctx, store.KeyAuth); err != nil {
		m.SetError(ErrClearAuth)
		return apperror.Wrap(apperror.KindCredential, err, ErrClearAuth)
	}

	m.mu.Lock()
	m.state = entity.AuthState{Role: entity.UserRoleArchitect}
	m.mu.Unlock()

	m.logger.Info(logModule, "Logged out", map[string]interface{}{"namespace": m.store.Namespace()})
	return nil
}

// Forget resets in-memory state without touching storage.
func (m *Manager) Forget() {
	m.mu.Lock()
	m.state = entity.AuthState{Role: entity.UserRoleArchitect}
	m.mu.Unlock()
}

func (m *Manager) State() entity.AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Error
}

func (m *Manager) SetError(msg string) {
	m.mu.Lock()
	m.state.Error = msg
	m.mu.Unlock()
}

func (m *Manager) ClearError() {
	m.SetError("")
}
