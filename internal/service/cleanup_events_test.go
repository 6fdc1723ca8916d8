package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gitmesh-session-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupEventRoundTrip(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "CHAT_SESSION_CLEANED")
	require.NoError(t, err)

	publisher := NewCleanupPublisherService("CHAT_SESSION_CLEANED", pubSub)
	require.NoError(t, publisher.PublishCleanup("u1", "inactive", &store.CleanupResult{
		EntriesCleaned: 3,
		MemoryFreedMB:  0.5,
	}))

	select {
	case msg := <-messages:
		defer msg.Ack()

		var event struct {
			EventType string                 `json:"event_type"`
			Payload   map[string]interface{} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "SESSION_CLEANED", event.EventType)
		assert.Equal(t, "u1", event.Payload["user_id"])
		assert.Equal(t, "inactive", event.Payload["strategy"])
		assert.Equal(t, float64(3), event.Payload["entries_cleaned"])
	case <-time.After(time.Second):
		t.Fatal("cleanup event was not delivered")
	}
}
