package service

import (
	"context"

	"design-companion-be/internal/dto"
	"design-companion-be/internal/mapper"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	consultEvents "design-companion-be/pkg/consult/events"
	"design-companion-be/pkg/consult/library"
	"design-companion-be/pkg/gemini"
)

type ILibraryService interface {
	GetLibrary(ctx context.Context, clientID string) *dto.LibraryResponse
	InitializeLibrary(ctx context.Context, clientID string) (*dto.StoreResponse, error)
	UploadDocument(ctx context.Context, clientID string, file gemini.UploadFile, sourceContext string) (*dto.UploadDocumentResponse, error)
	RemoveDocument(ctx context.Context, clientID, displayName string) error
	GetStoreInfo(ctx context.Context, clientID string) (*dto.StoreResponse, error)
	DeleteStore(ctx context.Context, clientID string) error
	ListStores(ctx context.Context, clientID string) ([]dto.StoreResponse, error)
	ResetUploadProgress(ctx context.Context, clientID string) *dto.LibraryResponse
}

type libraryService struct {
	workspaces IWorkspaceRegistry
	publisher  consultEvents.Publisher
	logger     logger.ILogger
}

func NewLibraryService(workspaces IWorkspaceRegistry, publisher consultEvents.Publisher, log logger.ILogger) ILibraryService {
	return &libraryService{
		workspaces: workspaces,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *libraryService) GetLibrary(ctx context.Context, clientID string) *dto.LibraryResponse {
	ws := s.workspaces.Get(ctx, clientID)
	return mapper.SnapshotToResponse(ws.Library.Snapshot(), ws.Library.MaxFileSizeBytes())
}

func (s *libraryService) InitializeLibrary(ctx context.Context, clientID string) (*dto.StoreResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)
	st, err := ws.Library.InitializeStore(ctx)
	if err != nil {
		return nil, err
	}
	res := mapper.StoreToResponse(*st)
	return &res, nil
}

// UploadDocument rejects invalid files before any network call. Rejections
// land in the library slot like any other file error.
func (s *libraryService) UploadDocument(ctx context.Context, clientID string, file gemini.UploadFile, sourceContext string) (*dto.UploadDocumentResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)

	check := library.ValidateRagFile(library.FileInfo{
		Name:     file.Name,
		MimeType: file.MimeType,
		Size:     int64(len(file.Data)),
	}, ws.Library.MaxFileSizeBytes())
	if !check.Valid {
		err := apperror.New(apperror.KindFile, check.Error)
		routeError(s.logger, ws, err)
		return nil, err
	}

	rec, err := ws.Library.UploadFile(ctx, file, sourceContext)
	if err != nil {
		return nil, err
	}
	s.publisher.PublishDocumentIndexed(ctx, clientID, rec)

	return &dto.UploadDocumentResponse{
		File:     mapper.LibraryFileToResponse(rec),
		Warnings: check.Warnings,
	}, nil
}

func (s *libraryService) RemoveDocument(ctx context.Context, clientID, displayName string) error {
	ws := s.workspaces.Get(ctx, clientID)
	if err := ws.Library.DeleteFile(ctx, displayName); err != nil {
		return err
	}
	s.publisher.PublishDocumentRemoved(ctx, clientID, displayName)
	return nil
}

func (s *libraryService) GetStoreInfo(ctx context.Context, clientID string) (*dto.StoreResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)
	st, err := ws.Library.GetStoreInfo(ctx)
	if err != nil {
		return nil, err
	}
	res := mapper.StoreToResponse(*st)
	return &res, nil
}

func (s *libraryService) DeleteStore(ctx context.Context, clientID string) error {
	ws := s.workspaces.Get(ctx, clientID)
	storeName := ws.Library.StoreName()
	if err := ws.Library.DeleteStore(ctx); err != nil {
		return err
	}
	s.publisher.PublishStoreDeleted(ctx, clientID, storeName)
	return nil
}

func (s *libraryService) ListStores(ctx context.Context, clientID string) ([]dto.StoreResponse, error) {
	ws := s.workspaces.Get(ctx, clientID)
	stores, err := ws.Library.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]dto.StoreResponse, 0, len(stores))
	for _, st := range stores {
		res = append(res, mapper.StoreToResponse(st))
	}
	return res, nil
}

func (s *libraryService) ResetUploadProgress(ctx context.Context, clientID string) *dto.LibraryResponse {
	ws := s.workspaces.Get(ctx, clientID)
	ws.Library.ResetUploadProgress()
	return mapper.SnapshotToResponse(ws.Library.Snapshot(), ws.Library.MaxFileSizeBytes())
}
