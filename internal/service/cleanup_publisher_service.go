package service

import (
	"encoding/json"

	"gitmesh-session-be/pkg/events"
	"gitmesh-session-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ICleanupEventPublisher emits a chat.session.cleaned event after every
// cleanup pass so interested consumers (audit log, future metrics) can
// observe cache activity without coupling to the lifecycle service.
type ICleanupEventPublisher interface {
	PublishCleanup(userID, strategy string, result *store.CleanupResult) error
}

type cleanupPublisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewCleanupPublisherService(topicName string, pubSub *gochannel.GoChannel) ICleanupEventPublisher {
	return &cleanupPublisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *cleanupPublisherService) PublishCleanup(userID, strategy string, result *store.CleanupResult) error {
	event := events.NewSessionCleanedEvent(userID, strategy, result.EntriesCleaned, result.MemoryFreedMB)

	payload, err := json.Marshal(map[string]interface{}{
		"event_type": event.EventType(),
		"payload":    event.Payload(),
		"timestamp":  event.Timestamp(),
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return ps.pubSub.Publish(ps.topicName, msg)
}
