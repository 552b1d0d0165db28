// Package ui holds view flags for one client. Nothing here is persisted.
package ui

import (
	"sync"

	"design-companion-be/internal/entity"
)

func defaults() entity.UIState {
	return entity.UIState{IsSidebarOpen: true}
}

type State struct {
	mu sync.RWMutex
	s  entity.UIState
}

func NewState() *State {
	return &State{s: defaults()}
}

// Snapshot returns a copy safe to hand to callers.
func (u *State) Snapshot() entity.UIState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := u.s
	if u.s.ActiveSessionId != nil {
		id := *u.s.ActiveSessionId
		out.ActiveSessionId = &id
	}
	return out
}

func (u *State) ToggleSidebar() {
	u.update(func(s *entity.UIState) { s.IsSidebarOpen = !s.IsSidebarOpen })
}

func (u *State) SetSidebar(open bool) {
	u.update(func(s *entity.UIState) { s.IsSidebarOpen = open })
}

func (u *State) SetLibrary(open bool) {
	u.update(func(s *entity.UIState) { s.IsLibraryOpen = open })
}

func (u *State) SetSettings(open bool) {
	u.update(func(s *entity.UIState) { s.IsSettingsOpen = open })
}

// SetActiveSession points at a session; an empty id clears the pointer.
func (u *State) SetActiveSession(id string) {
	u.update(func(s *entity.UIState) {
		if id == "" {
			s.ActiveSessionId = nil
			return
		}
		s.ActiveSessionId = &id
	})
}

// ClearActiveSessionIf clears the pointer only when it targets id.
func (u *State) ClearActiveSessionIf(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.s.ActiveSessionId == nil || *u.s.ActiveSessionId != id {
		return false
	}
	u.s.ActiveSessionId = nil
	return true
}

func (u *State) ActiveSession() (string, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.s.ActiveSessionId == nil {
		return "", false
	}
	return *u.s.ActiveSessionId, true
}

// TryBeginLoading sets the loading flag if it was clear and reports whether
// the caller now owns it.
func (u *State) TryBeginLoading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.s.IsLoading {
		return false
	}
	u.s.IsLoading = true
	return true
}

func (u *State) EndLoading() {
	u.update(func(s *entity.UIState) { s.IsLoading = false })
}

func (u *State) IsLoading() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.s.IsLoading
}

func (u *State) Reset() {
	u.mu.Lock()
	u.s = defaults()
	u.mu.Unlock()
}

func (u *State) update(fn func(*entity.UIState)) {
	u.mu.Lock()
	fn(&u.s)
	u.mu.Unlock()
}
