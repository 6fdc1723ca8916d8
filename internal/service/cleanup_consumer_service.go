package service

import (
	"context"
	"encoding/json"

	"gitmesh-session-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ICleanupConsumerService drains cleanup events into the isolated audit log.
type ICleanupConsumerService interface {
	Consume(ctx context.Context) error
}

type cleanupConsumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewCleanupConsumerService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) ICleanupConsumerService {
	return &cleanupConsumerService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
	}
}

func (cs *cleanupConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *cleanupConsumerService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var event struct {
		EventType string                 `json:"event_type"`
		Payload   map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Warn("CleanupConsumer", "Malformed cleanup event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	cs.logger.Info("CleanupConsumer", "Session cache cleaned", event.Payload)
}
