package service

import (
	"context"

	"design-companion-be/internal/dto"
	"design-companion-be/internal/entity"
	"design-companion-be/pkg/apperror"
)

type IUIService interface {
	GetState(ctx context.Context, clientID string) entity.UIState
	ToggleSidebar(ctx context.Context, clientID string) entity.UIState
	Update(ctx context.Context, clientID string, req dto.UpdateUIRequest) (entity.UIState, error)
}

type uiService struct {
	workspaces IWorkspaceRegistry
}

func NewUIService(workspaces IWorkspaceRegistry) IUIService {
	return &uiService{workspaces: workspaces}
}

func (s *uiService) GetState(ctx context.Context, clientID string) entity.UIState {
	return s.workspaces.Get(ctx, clientID).UI.Snapshot()
}

func (s *uiService) ToggleSidebar(ctx context.Context, clientID string) entity.UIState {
	ws := s.workspaces.Get(ctx, clientID)
	ws.UI.ToggleSidebar()
	return ws.UI.Snapshot()
}

// Update applies the present fields. The active session must exist.
func (s *uiService) Update(ctx context.Context, clientID string, req dto.UpdateUIRequest) (entity.UIState, error) {
	ws := s.workspaces.Get(ctx, clientID)

	if req.ActiveSessionId != nil && *req.ActiveSessionId != "" {
		if _, ok := ws.Sessions.Get(*req.ActiveSessionId); !ok {
			return ws.UI.Snapshot(), apperror.New(apperror.KindNotFound, "Session not found")
		}
	}

	if req.IsSidebarOpen != nil {
		ws.UI.SetSidebar(*req.IsSidebarOpen)
	}
	if req.IsLibraryOpen != nil {
		ws.UI.SetLibrary(*req.IsLibraryOpen)
	}
	if req.IsSettingsOpen != nil {
		ws.UI.SetSettings(*req.IsSettingsOpen)
	}
	if req.ActiveSessionId != nil {
		ws.UI.SetActiveSession(*req.ActiveSessionId)
	}
	return ws.UI.Snapshot(), nil
}
