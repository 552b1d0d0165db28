package events

import "time"

const (
	TypeSessionCreated     = "SESSION_CREATED"
	TypeSessionDeleted     = "SESSION_DELETED"
	TypeDocumentIndexed    = "DOCUMENT_INDEXED"
	TypeDocumentRemoved    = "DOCUMENT_REMOVED"
	TypeStoreDeleted       = "STORE_DELETED"
	TypeConsultationFailed = "CONSULTATION_FAILED"
	TypeClientReset        = "CLIENT_RESET"
)

// Event is anything that can travel on the bus.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
