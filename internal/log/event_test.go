package log

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_PublishSubscribe(t *testing.T) {
	t.Parallel()
	collector := &Collector{}
	events := collector.Subscribe(4)

	collector.Publish(Event{EventType: ConversationStarted, Payload: ConversationPayload{ConversationID: "conv-1"}})

	select {
	case event := <-events:
		assert.EqualValues(t, ConversationStarted, event.EventType)
		assert.False(t, event.Time.IsZero(), "publish stamps missing time")
		payload, ok := event.Payload.(ConversationPayload)
		assert.True(t, ok)
		assert.EqualValues(t, "conv-1", payload.ConversationID)
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestCollector_NonBlocking(t *testing.T) {
	t.Parallel()
	collector := &Collector{}
	_ = collector.Subscribe(1)

	// a full subscriber must never block the publisher
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			collector.Publish(Event{EventType: ConversationTurn})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
