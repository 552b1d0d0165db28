package service

import (
	"context"
	"encoding/json"

	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/consult/library"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	ProgressTopic       = "library.progress"
	ProgressMessageType = "upload_progress"

	clientIDMetadata = "client_id"
)

// Delivery pushes a typed payload to one client's live connections.
type Delivery interface {
	Send(clientID, msgType string, data interface{})
}

type IProgressService interface {
	ProgressPublisher
	Consume(ctx context.Context) error
}

type progressService struct {
	pubSub   *gochannel.GoChannel
	topic    string
	delivery Delivery
	logger   logger.ILogger
}

// NewProgressService moves library progress off the uploading goroutine and
// onto the client's websocket connections.
func NewProgressService(pubSub *gochannel.GoChannel, delivery Delivery, log logger.ILogger) IProgressService {
	return &progressService{
		pubSub:   pubSub,
		topic:    ProgressTopic,
		delivery: delivery,
		logger:   log,
	}
}

func (s *progressService) Publish(clientID string, p library.Progress) {
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(clientIDMetadata, clientID)

	if err := s.pubSub.Publish(s.topic, msg); err != nil {
		s.logger.Warn("PROGRESS", "Failed to publish progress", map[string]interface{}{
			"client_id": clientID,
			"error":     err.Error(),
		})
	}
}

func (s *progressService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(msg)
		}
	}()
	return nil
}

func (s *progressService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var p library.Progress
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		s.logger.Warn("PROGRESS", "Dropping undecodable progress message", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	clientID := msg.Metadata.Get(clientIDMetadata)
	if clientID == "" {
		return
	}
	s.delivery.Send(clientID, ProgressMessageType, p)
}
