package events

import (
	"context"
	"time"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	pkgEvents "design-companion-be/pkg/events"
)

// Bus is the transport the publisher writes to.
type Bus interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// Publisher emits consultation activity. Implementations never fail the
// caller; delivery problems are logged.
type Publisher interface {
	PublishSessionCreated(ctx context.Context, clientID, sessionID string)
	PublishSessionDeleted(ctx context.Context, clientID, sessionID string)
	PublishDocumentIndexed(ctx context.Context, clientID string, file entity.LibraryFile)
	PublishDocumentRemoved(ctx context.Context, clientID, displayName string)
	PublishStoreDeleted(ctx context.Context, clientID, storeName string)
	PublishConsultationFailed(ctx context.Context, clientID, sessionID string, kind apperror.Kind)
	PublishClientReset(ctx context.Context, clientID string)
}

type NatsPublisher struct {
	bus    Bus
	logger logger.ILogger
}

// NewNatsPublisher accepts a nil bus, in which case every call is a no-op.
func NewNatsPublisher(bus Bus, log logger.ILogger) *NatsPublisher {
	return &NatsPublisher{bus: bus, logger: log}
}

func (p *NatsPublisher) PublishSessionCreated(ctx context.Context, clientID, sessionID string) {
	p.emit(ctx, pkgEvents.TypeSessionCreated, map[string]interface{}{
		"client_id":   clientID,
		"session_id":  sessionID,
		"entity_type": "session",
		"entity_id":   sessionID,
	})
}

func (p *NatsPublisher) PublishSessionDeleted(ctx context.Context, clientID, sessionID string) {
	p.emit(ctx, pkgEvents.TypeSessionDeleted, map[string]interface{}{
		"client_id":   clientID,
		"session_id":  sessionID,
		"entity_type": "session",
		"entity_id":   sessionID,
	})
}

func (p *NatsPublisher) PublishDocumentIndexed(ctx context.Context, clientID string, file entity.LibraryFile) {
	p.emit(ctx, pkgEvents.TypeDocumentIndexed, map[string]interface{}{
		"client_id":    clientID,
		"display_name": file.DisplayName,
		"document":     file.RemoteName,
		"size":         file.Size,
		"entity_type":  "document",
		"entity_id":    file.Name,
	})
}

func (p *NatsPublisher) PublishDocumentRemoved(ctx context.Context, clientID, displayName string) {
	p.emit(ctx, pkgEvents.TypeDocumentRemoved, map[string]interface{}{
		"client_id":    clientID,
		"display_name": displayName,
		"entity_type":  "document",
	})
}

func (p *NatsPublisher) PublishStoreDeleted(ctx context.Context, clientID, storeName string) {
	p.emit(ctx, pkgEvents.TypeStoreDeleted, map[string]interface{}{
		"client_id":   clientID,
		"store":       storeName,
		"entity_type": "store",
		"entity_id":   storeName,
	})
}

func (p *NatsPublisher) PublishConsultationFailed(ctx context.Context, clientID, sessionID string, kind apperror.Kind) {
	p.emit(ctx, pkgEvents.TypeConsultationFailed, map[string]interface{}{
		"client_id":  clientID,
		"session_id": sessionID,
		"kind":       string(kind),
		"severity":   string(apperror.SeverityFor(kind)),
	})
}

func (p *NatsPublisher) PublishClientReset(ctx context.Context, clientID string) {
	p.emit(ctx, pkgEvents.TypeClientReset, map[string]interface{}{"client_id": clientID})
}

func (p *NatsPublisher) emit(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.bus == nil {
		return
	}
	evt := pkgEvents.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := p.bus.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}
