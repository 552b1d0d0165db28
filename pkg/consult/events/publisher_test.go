package events

import (
	"context"
	"errors"
	"testing"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/apperror"
	pkgEvents "design-companion-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBus struct {
	events []pkgEvents.Event
	err    error
}

func (b *captureBus) Publish(ctx context.Context, event pkgEvents.Event) error {
	b.events = append(b.events, event)
	return b.err
}

func TestNilBusIsNoop(t *testing.T) {
	p := NewNatsPublisher(nil, logger.NewNopLogger())
	assert.NotPanics(t, func() {
		p.PublishSessionCreated(context.Background(), "c", "s")
		p.PublishClientReset(context.Background(), "c")
	})
}

func TestPublishesTypedEvents(t *testing.T) {
	bus := &captureBus{}
	p := NewNatsPublisher(bus, logger.NewNopLogger())
	ctx := context.Background()

	p.PublishSessionCreated(ctx, "c1", "s1")
	p.PublishDocumentIndexed(ctx, "c1", entity.LibraryFile{Name: "doc-1", DisplayName: "a.pdf", Size: 10})
	p.PublishConsultationFailed(ctx, "c1", "s1", apperror.KindRateLimited)

	require.Len(t, bus.events, 3)
	assert.Equal(t, pkgEvents.TypeSessionCreated, bus.events[0].EventType())
	assert.Equal(t, "s1", bus.events[0].Payload()["session_id"])
	assert.Equal(t, "a.pdf", bus.events[1].Payload()["display_name"])
	assert.Equal(t, "rate_limited", bus.events[2].Payload()["kind"])
	assert.False(t, bus.events[2].Timestamp().IsZero())
}

func TestBusErrorIsSwallowed(t *testing.T) {
	bus := &captureBus{err: errors.New("nats down")}
	p := NewNatsPublisher(bus, logger.NewNopLogger())
	assert.NotPanics(t, func() { p.PublishSessionDeleted(context.Background(), "c", "s") })
	assert.Len(t, bus.events, 1)
}
