package service

import (
	"context"
	"sync"
	"time"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/internal/repository/contract"
	"design-companion-be/internal/repository/memory"
	"design-companion-be/pkg/apperror"
	"design-companion-be/pkg/consult/library"
	"design-companion-be/pkg/gemini"
)

type stubConsultant struct {
	mu       sync.Mutex
	chatText string
	chatErr  error
	analysis *gemini.AnalysisResult
	history  []entity.Message
	calls    []string

	// entered and release, when set, hold Chat until the test lets it go.
	entered chan struct{}
	release chan struct{}
}

func (s *stubConsultant) Analyze(ctx context.Context, prompt, imageURI string, opts gemini.SearchOptions) (*gemini.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "analyze")
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return s.analysis, nil
}

func (s *stubConsultant) Chat(ctx context.Context, message string, history []entity.Message, opts gemini.SearchOptions) (*gemini.ChatResult, error) {
	if s.release != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "chat")
	s.history = history
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	return &gemini.ChatResult{Text: s.chatText}, nil
}

type stubRemote struct {
	mu      sync.Mutex
	uploads int
}

func (r *stubRemote) GetOrCreateStore(ctx context.Context, displayName string) (*entity.FileSearchStore, error) {
	return &entity.FileSearchStore{Name: "fileSearchStores/test", DisplayName: displayName}, nil
}

func (r *stubRemote) GetStore(ctx context.Context, name string) (*entity.FileSearchStore, error) {
	return &entity.FileSearchStore{Name: name, SizeBytes: "2048"}, nil
}

func (r *stubRemote) ListStores(ctx context.Context) ([]entity.FileSearchStore, error) {
	return []entity.FileSearchStore{{Name: "fileSearchStores/test", SizeBytes: "1048576"}}, nil
}

func (r *stubRemote) DeleteStore(ctx context.Context, name string) error {
	return nil
}

func (r *stubRemote) DeleteDocument(ctx context.Context, storeName, documentName string) error {
	return nil
}

func (r *stubRemote) UploadAndIndex(ctx context.Context, storeName string, file gemini.UploadFile, sourceContext string, onProgress gemini.ProgressFunc) (*gemini.UploadResult, error) {
	r.mu.Lock()
	r.uploads++
	r.mu.Unlock()
	onProgress("Processing file...", 50)
	return &gemini.UploadResult{DocumentName: storeName + "/documents/doc"}, nil
}

func (r *stubRemote) uploadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploads
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) record(name string) {
	p.mu.Lock()
	p.events = append(p.events, name)
	p.mu.Unlock()
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func (p *recordingPublisher) PublishSessionCreated(ctx context.Context, clientID, sessionID string) {
	p.record("session_created")
}

func (p *recordingPublisher) PublishSessionDeleted(ctx context.Context, clientID, sessionID string) {
	p.record("session_deleted")
}

func (p *recordingPublisher) PublishDocumentIndexed(ctx context.Context, clientID string, file entity.LibraryFile) {
	p.record("document_indexed")
}

func (p *recordingPublisher) PublishDocumentRemoved(ctx context.Context, clientID, displayName string) {
	p.record("document_removed")
}

func (p *recordingPublisher) PublishStoreDeleted(ctx context.Context, clientID, storeName string) {
	p.record("store_deleted")
}

func (p *recordingPublisher) PublishConsultationFailed(ctx context.Context, clientID, sessionID string, kind apperror.Kind) {
	p.record("consultation_failed:" + string(kind))
}

func (p *recordingPublisher) PublishClientReset(ctx context.Context, clientID string) {
	p.record("client_reset")
}

type recordingDelivery struct {
	mu   sync.Mutex
	sent []sentFrame
}

type sentFrame struct {
	ClientID string
	Type     string
	Data     interface{}
}

func (d *recordingDelivery) Send(clientID, msgType string, data interface{}) {
	d.mu.Lock()
	d.sent = append(d.sent, sentFrame{clientID, msgType, data})
	d.mu.Unlock()
}

func (d *recordingDelivery) Frames() []sentFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentFrame(nil), d.sent...)
}

type fixture struct {
	repo       contract.KVRepository
	remote     *stubRemote
	consultant *stubConsultant
	publisher  *recordingPublisher
	workspaces IWorkspaceRegistry
	svc        IConsultationService
}

func newFixture(repo contract.KVRepository) *fixture {
	if repo == nil {
		repo = memory.NewKVRepository()
	}
	log := logger.NewNopLogger()
	f := &fixture{
		repo:       repo,
		remote:     &stubRemote{},
		consultant: &stubConsultant{chatText: "Keep corridors at least 1.5m wide."},
		publisher:  &recordingPublisher{},
	}
	f.workspaces = NewWorkspaceRegistry(repo, f.remote, library.Options{ProgressClearDelay: time.Millisecond}, nil, time.Hour, log)
	f.svc = NewConsultationService(f.workspaces, f.consultant, f.publisher, log)
	return f
}
