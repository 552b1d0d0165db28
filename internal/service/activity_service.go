package service

import (
	"context"
	"time"

	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/events"
	pktNats "design-companion-be/pkg/nats"
)

const (
	ActivityMessageType = "activity"
	activityDurable     = "companion-activity"
)

// ActivityNotice is what a client sees when one of its own events comes back
// off the stream, including events raised by other instances.
type ActivityNotice struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurredAt"`
}

type ActivityService struct {
	subscriber *pktNats.Subscriber
	delivery   Delivery
	logger     logger.ILogger
}

func NewActivityService(sub *pktNats.Subscriber, delivery Delivery, log logger.ILogger) *ActivityService {
	return &ActivityService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start listens to every consultation event. Without a subscriber it does
// nothing.
func (s *ActivityService) Start(ctx context.Context) {
	if s.subscriber == nil {
		s.logger.Warn("ACTIVITY", "No event subscriber configured, activity feed disabled", nil)
		return
	}
	if err := s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", activityDurable, s.handleEvent); err != nil {
		s.logger.Error("ACTIVITY", "Failed to start activity subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("ACTIVITY", "Activity feed started", nil)
}

func (s *ActivityService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	clientID, _ := payload["client_id"].(string)

	s.logger.Info("ACTIVITY", "Event received", map[string]interface{}{
		"type":      event.EventType(),
		"client_id": clientID,
	})
	if clientID == "" {
		return nil
	}

	s.delivery.Send(clientID, ActivityMessageType, ActivityNotice{
		Type:       event.EventType(),
		Data:       payload,
		OccurredAt: event.Timestamp(),
	})
	return nil
}
