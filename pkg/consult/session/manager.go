// Package session keeps the per-client list of consultation sessions.
package session

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	"design-companion-be/pkg/store"

	"github.com/google/uuid"
)

const (
	TitleMaxLength      = 30
	TitleTruncateSuffix = "..."

	ErrCreateSession = "Failed to create new session"
	ErrDeleteSession = "Failed to delete session"
	ErrUpdateSession = "Failed to update session"
	ErrAddMessage    = "Failed to add message"

	logModule = "SESSION"
)

// Update carries the mutable fields of a session.
type Update struct {
	Title *string
}

type Manager struct {
	mu       sync.RWMutex
	store    *store.Adapter
	logger   logger.ILogger
	sessions []entity.ChatSession
	err      string

	now   func() time.Time
	newID func() string
}

// NewManager loads persisted sessions; unreadable data starts an empty list.
func NewManager(ctx context.Context, adapter *store.Adapter, log logger.ILogger) *Manager {
	return &Manager{
		store:    adapter,
		logger:   log,
		sessions: store.Get(ctx, adapter, store.KeySessions, []entity.ChatSession{}),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateSession prepends a new empty session and returns its id.
func (m *Manager) CreateSession(ctx context.Context, title string) (string, error) {
	if title == "" {
		title = entity.DefaultSessionTitle
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = ""

	ts := m.now().UnixMilli()
	s := entity.ChatSession{
		Id:        m.newID(),
		Title:     title,
		Messages:  []entity.Message{},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	m.sessions = append([]entity.ChatSession{s}, m.sessions...)

	if err := m.persist(ctx, ErrCreateSession); err != nil {
		return s.Id, err
	}
	return s.Id, nil
}

// AddMessage appends a message, stamping id and timestamp.
func (m *Manager) AddMessage(ctx context.Context, sessionID string, msg entity.Message) (entity.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = ""

	idx := m.indexOf(sessionID)
	if idx < 0 {
		return entity.Message{}, m.fail(ErrAddMessage, apperror.New(apperror.KindSession, "session not found"))
	}

	ts := m.now().UnixMilli()
	msg.Id = m.newID()
	msg.Timestamp = ts

	s := &m.sessions[idx]
	if len(s.Messages) == 0 && msg.Role == entity.MessageRoleUser {
		s.Title = DeriveTitle(msg.Content)
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = ts

	if err := m.persist(ctx, ErrAddMessage); err != nil {
		return msg, err
	}
	return msg, nil
}

// DeleteSession removes a session. Unknown ids are not an error.
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = ""

	idx := m.indexOf(sessionID)
	if idx < 0 {
		return nil
	}
	m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)
	return m.persist(ctx, ErrDeleteSession)
}

func (m *Manager) UpdateSession(ctx context.Context, sessionID string, upd Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = ""

	idx := m.indexOf(sessionID)
	if idx < 0 {
		return nil
	}
	s := &m.sessions[idx]
	if upd.Title != nil {
		s.Title = *upd.Title
	}
	s.UpdatedAt = m.now().UnixMilli()
	return m.persist(ctx, ErrUpdateSession)
}

// Sessions returns a copy, newest first.
func (m *Manager) Sessions() []entity.ChatSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entity.ChatSession, len(m.sessions))
	for i := range m.sessions {
		out[i] = cloneSession(m.sessions[i])
	}
	return out
}

func (m *Manager) Get(sessionID string) (entity.ChatSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.indexOf(sessionID)
	if idx < 0 {
		return entity.ChatSession{}, false
	}
	return cloneSession(m.sessions[idx]), true
}

// MostRecent picks the session with the latest creation time.
func (m *Manager) MostRecent() (entity.ChatSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.sessions) == 0 {
		return entity.ChatSession{}, false
	}
	sorted := make([]entity.ChatSession, len(m.sessions))
	copy(sorted, m.sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})
	return cloneSession(sorted[0]), true
}

func (m *Manager) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *Manager) SetError(msg string) {
	m.mu.Lock()
	m.err = msg
	m.mu.Unlock()
}

func (m *Manager) ClearError() {
	m.SetError("")
}

func (m *Manager) indexOf(sessionID string) int {
	for i := range m.sessions {
		if m.sessions[i].Id == sessionID {
			return i
		}
	}
	return -1
}

// persist writes the whole list. Caller holds the lock.
func (m *Manager) persist(ctx context.Context, failure string) error {
	if err := m.store.Set(ctx, store.KeySessions, m.sessions); err != nil {
		return m.fail(failure, err)
	}
	return nil
}

func (m *Manager) fail(failure string, cause error) error {
	m.err = failure
	m.logger.Error(logModule, failure, map[string]interface{}{
		"namespace": m.store.Namespace(),
		"error":     cause.Error(),
	})
	return apperror.Wrap(apperror.KindSession, cause, failure)
}

// DeriveTitle keeps the first TitleMaxLength characters of content.
func DeriveTitle(content string) string {
	if utf8.RuneCountInString(content) <= TitleMaxLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:TitleMaxLength]) + TitleTruncateSuffix
}

func cloneSession(s entity.ChatSession) entity.ChatSession {
	msgs := make([]entity.Message, len(s.Messages))
	copy(msgs, s.Messages)
	s.Messages = msgs
	return s
}
