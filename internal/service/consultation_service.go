package service

import (
	"context"
	"strings"

	"design-companion-be/internal/dto"
	"design-companion-be/internal/entity"
	"design-companion-be/internal/mapper"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	consultEvents "design-companion-be/pkg/consult/events"
	"design-companion-be/pkg/consult/session"
	"design-companion-be/pkg/gemini"
)

const (
	FallbackReply = "I apologize, but I was unable to generate a response."
	ErrorReply    = "I encountered an error while processing your request. Please check your API configuration and try again."

	// ImageOnlyContent stands in for the text of an image sent without one.
	ImageOnlyContent = "Please analyze this architectural design"

	consultationModule = "CONSULTATION"
)

// Consultant produces model replies.
type Consultant interface {
	Analyze(ctx context.Context, prompt, imageURI string, opts gemini.SearchOptions) (*gemini.AnalysisResult, error)
	Chat(ctx context.Context, message string, history []entity.Message, opts gemini.SearchOptions) (*gemini.ChatResult, error)
}

type IConsultationService interface {
	// SendMessage returns nil, nil when the call is dropped: no active
	// session, a reply already in flight, or nothing to send.
	SendMessage(ctx context.Context, clientID string, req dto.SendMessageRequest) (*dto.SendMessageResponse, error)

	CreateNewSession(ctx context.Context, clientID, title string) (*dto.CreateSessionResponse, error)
	DeleteSession(ctx context.Context, clientID, sessionID string) error
	RenameSession(ctx context.Context, clientID, sessionID, title string) (*entity.ChatSession, error)
	GetSessions(ctx context.Context, clientID string) *dto.SessionListResponse
	GetSession(ctx context.Context, clientID, sessionID string) (*entity.ChatSession, error)

	HandleError(ctx context.Context, clientID string, err error) string
	GetErrors(ctx context.Context, clientID string) *dto.ErrorSlotsResponse
	ClearErrors(ctx context.Context, clientID string)
	ResetClient(ctx context.Context, clientID string) error
}

type consultationService struct {
	workspaces IWorkspaceRegistry
	consultant Consultant
	publisher  consultEvents.Publisher
	logger     logger.ILogger
}

func NewConsultationService(
	workspaces IWorkspaceRegistry,
	consultant Consultant,
	publisher consultEvents.Publisher,
	log logger.ILogger,
) IConsultationService {
	return &consultationService{
		workspaces: workspaces,
		consultant: consultant,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *consultationService) SendMessage(ctx context.Context, clientID string, req dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if strings.TrimSpace(req.Content) == "" && req.Image == "" {
		return nil, nil
	}

	ws := s.workspaces.Get(ctx, clientID)
	sessionID, ok := ws.UI.ActiveSession()
	if !ok {
		return nil, nil
	}
	current, exists := ws.Sessions.Get(sessionID)
	if !exists {
		ws.UI.ClearActiveSessionIf(sessionID)
		return nil, nil
	}
	if !ws.UI.TryBeginLoading() {
		return nil, nil
	}
	defer ws.UI.EndLoading()

	content := req.Content
	if strings.TrimSpace(content) == "" {
		content = ImageOnlyContent
	}
	userMsg, err := ws.Sessions.AddMessage(ctx, sessionID, entity.Message{
		Role:    entity.MessageRoleUser,
		Content: content,
		Image:   req.Image,
	})
	if err != nil {
		logFailure(s.logger, ws, "Failed to store user message", err)
		if userMsg.Id == "" {
			return nil, err
		}
	}

	opts := gemini.SearchOptions{StoreName: ws.Library.StoreName()}
	reply := entity.Message{Role: entity.MessageRoleModel}

	if req.Image != "" {
		res, callErr := s.consultant.Analyze(ctx, req.Content, req.Image, opts)
		if callErr == nil {
			analysis := res.Analysis
			reply.Content = res.Text
			reply.Citations = res.Citations
			reply.Analysis = &analysis
		}
		err = callErr
	} else {
		res, callErr := s.consultant.Chat(ctx, req.Content, current.Messages, opts)
		if callErr == nil {
			reply.Content = res.Text
			reply.Citations = res.Citations
		}
		err = callErr
	}

	if err != nil {
		kind := routeError(s.logger, ws, err)
		s.publisher.PublishConsultationFailed(ctx, clientID, sessionID, kind)
		reply = entity.Message{Role: entity.MessageRoleModel, Content: ErrorReply, IsError: true}
	} else if reply.Content == "" {
		reply.Content = FallbackReply
	}

	saved, err := ws.Sessions.AddMessage(ctx, sessionID, reply)
	if err != nil {
		logFailure(s.logger, ws, "Failed to store reply", err)
		if saved.Id == "" {
			return nil, err
		}
	}

	return &dto.SendMessageResponse{
		UserMessage: &userMsg,
		Reply:       &saved,
		Sources:     mapper.CitationTitles(saved.Citations),
	}, nil
}

// CreateNewSession makes the new session active and closes the sidebar.
// A persistence failure is reported through the sessions slot; the session
// still exists for this process.
func (s *consultationService) CreateNewSession(ctx context.Context, clientID, title string) (*dto.CreateSessionResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)

	id, err := ws.Sessions.CreateSession(ctx, title)
	if err != nil {
		logFailure(s.logger, ws, "Session created but not persisted", err)
	}
	ws.UI.SetActiveSession(id)
	ws.UI.SetSidebar(false)

	created, ok := ws.Sessions.Get(id)
	if !ok {
		return nil, apperror.New(apperror.KindSession, session.ErrCreateSession)
	}
	s.publisher.PublishSessionCreated(ctx, clientID, id)

	return &dto.CreateSessionResponse{Session: created, UI: ws.UI.Snapshot()}, nil
}

func (s *consultationService) DeleteSession(ctx context.Context, clientID, sessionID string) error {
	ws := s.workspaces.Get(ctx, clientID)
	if _, ok := ws.Sessions.Get(sessionID); !ok {
		return nil
	}

	if err := ws.Sessions.DeleteSession(ctx, sessionID); err != nil {
		logFailure(s.logger, ws, "Session deleted but not persisted", err)
	}
	ws.UI.ClearActiveSessionIf(sessionID)
	s.publisher.PublishSessionDeleted(ctx, clientID, sessionID)
	return nil
}

func (s *consultationService) RenameSession(ctx context.Context, clientID, sessionID, title string) (*entity.ChatSession, error) {
	ws := s.workspaces.Get(ctx, clientID)
	if _, ok := ws.Sessions.Get(sessionID); !ok {
		return nil, apperror.New(apperror.KindNotFound, "Session not found")
	}

	if err := ws.Sessions.UpdateSession(ctx, sessionID, session.Update{Title: &title}); err != nil {
		logFailure(s.logger, ws, "Session renamed but not persisted", err)
	}
	updated, _ := ws.Sessions.Get(sessionID)
	return &updated, nil
}

func (s *consultationService) GetSessions(ctx context.Context, clientID string) *dto.SessionListResponse {
	ws := s.workspaces.Get(ctx, clientID)
	activeID, _ := ws.UI.ActiveSession()

	sessions := ws.Sessions.Sessions()
	res := &dto.SessionListResponse{
		Sessions:        make([]dto.SessionSummaryResponse, 0, len(sessions)),
		ActiveSessionId: ws.UI.Snapshot().ActiveSessionId,
	}
	for _, sess := range sessions {
		res.Sessions = append(res.Sessions, mapper.SessionToSummary(sess, sess.Id == activeID))
	}
	return res
}

func (s *consultationService) GetSession(ctx context.Context, clientID, sessionID string) (*entity.ChatSession, error) {
	ws := s.workspaces.Get(ctx, clientID)
	sess, ok := ws.Sessions.Get(sessionID)
	if !ok {
		return nil, apperror.New(apperror.KindNotFound, "Session not found")
	}
	return &sess, nil
}

func (s *consultationService) HandleError(ctx context.Context, clientID string, err error) string {
	if err == nil {
		return ""
	}
	ws := s.workspaces.Get(ctx, clientID)
	routeError(s.logger, ws, err)
	return apperror.UserMessage(err)
}

func (s *consultationService) GetErrors(ctx context.Context, clientID string) *dto.ErrorSlotsResponse {
	ws := s.workspaces.Get(ctx, clientID)
	return &dto.ErrorSlotsResponse{
		Auth:     ws.Auth.Error(),
		Sessions: ws.Sessions.Error(),
		Library:  ws.Library.Error(),
	}
}

func (s *consultationService) ClearErrors(ctx context.Context, clientID string) {
	ws := s.workspaces.Get(ctx, clientID)
	ws.Auth.ClearError()
	ws.Sessions.ClearError()
	ws.Library.ClearError()
}

// ResetClient removes exactly the keys this application owns for the client
// and drops its in-memory workspace.
func (s *consultationService) ResetClient(ctx context.Context, clientID string) error {
	err := s.workspaces.Reset(ctx, clientID)
	if err != nil {
		s.logger.Error(consultationModule, "Client reset left keys behind", map[string]interface{}{
			"client_id": clientID,
			"error":     err.Error(),
		})
		return apperror.Wrap(apperror.KindQuota, err, "Failed to clear stored data")
	}
	s.logger.Info(consultationModule, "Client storage reset", map[string]interface{}{"client_id": clientID})
	s.publisher.PublishClientReset(ctx, clientID)
	return nil
}

// logFailure records an error a store already reported in its own slot.
func logFailure(log logger.ILogger, ws *Workspace, msg string, err error) {
	log.Warn(consultationModule, msg, map[string]interface{}{
		"client_id": ws.ClientID,
		"kind":      apperror.KindOf(err),
		"error":     err.Error(),
	})
}

// routeError writes the user-facing sentence for err into the slot owned by
// its kind and logs it. Kinds without a slot are only logged.
func routeError(log logger.ILogger, ws *Workspace, err error) apperror.Kind {
	kind := apperror.KindOf(err)
	msg := apperror.MessageFor(kind)
	slot := apperror.SlotFor(kind)

	switch slot {
	case apperror.SlotAuth:
		ws.Auth.SetError(msg)
	case apperror.SlotSessions:
		ws.Sessions.SetError(msg)
	case apperror.SlotLibrary:
		ws.Library.SetError(msg)
	}

	log.Error(consultationModule, "Application error", map[string]interface{}{
		"client_id": ws.ClientID,
		"kind":      kind,
		"severity":  apperror.SeverityFor(kind),
		"slot":      slot,
		"error":     err.Error(),
	})
	return kind
}
