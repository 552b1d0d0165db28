package service

import (
	"context"
	"time"

	"design-companion-be/internal/dto"
	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
)

// TokenIssuer signs the token that binds a client id to a role.
type TokenIssuer interface {
	Issue(clientID string, role entity.UserRole) (string, time.Time, error)
}

type IRoleService interface {
	SelectRole(ctx context.Context, clientID string, role entity.UserRole) (*dto.SelectRoleResponse, error)
	Logout(ctx context.Context, clientID string) error
	AuthState(ctx context.Context, clientID string) entity.AuthState
}

type roleService struct {
	workspaces IWorkspaceRegistry
	tokens     TokenIssuer
	logger     logger.ILogger
}

func NewRoleService(workspaces IWorkspaceRegistry, tokens TokenIssuer, log logger.ILogger) IRoleService {
	return &roleService{
		workspaces: workspaces,
		tokens:     tokens,
		logger:     log,
	}
}

func (s *roleService) SelectRole(ctx context.Context, clientID string, role entity.UserRole) (*dto.SelectRoleResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)
	if err := ws.Auth.Login(ctx, role); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(clientID, role)
	if err != nil {
		s.logger.Error("AUTH", "Failed to sign token", map[string]interface{}{
			"client_id": clientID,
			"error":     err.Error(),
		})
		return nil, apperror.Wrap(apperror.KindServer, err, "Failed to issue token")
	}

	return &dto.SelectRoleResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientId:  clientID,
		Auth:      ws.Auth.State(),
	}, nil
}

func (s *roleService) Logout(ctx context.Context, clientID string) error {
	return s.workspaces.Get(ctx, clientID).Auth.Logout(ctx)
}

func (s *roleService) AuthState(ctx context.Context, clientID string) entity.AuthState {
	return s.workspaces.Get(ctx, clientID).Auth.State()
}
