// Package log provides a lightweight in-process event collector used to
// observe conversations as they unfold (live feed) without coupling the
// orchestration core to any output surface.
package log

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType represents classification of an event.
type EventType string

const (
	ConversationStarted  EventType = "CONV_STARTED"
	ConversationTurn     EventType = "CONV_TURN"
	ConversationFinished EventType = "CONV_FINISHED"
	BatchFinished        EventType = "BATCH_FINISHED"
)

type Event struct {
	Time      time.Time   `json:"ts"`
	EventType EventType   `json:"eventtype"`
	Payload   interface{} `json:"p"`
}

// TurnPayload describes a single persisted utterance.
type TurnPayload struct {
	ConversationID string `json:"conversationId"`
	Speaker        string `json:"speaker"`
	Text           string `json:"text"`
	Turn           int    `json:"turn"`
}

// ConversationPayload describes a conversation lifecycle transition.
type ConversationPayload struct {
	ConversationID string `json:"conversationId"`
	PartnerName    string `json:"partnerName,omitempty"`
	Status         string `json:"status,omitempty"`
	Score          *int   `json:"score,omitempty"`
}

// BatchPayload summarises a finished batch.
type BatchPayload struct {
	UserID    string `json:"userId"`
	Run       int    `json:"run"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Collector collects events and fans them out to subscribers.
type Collector struct {
	mu   sync.RWMutex
	subs []chan Event
}

var Default = &Collector{}

// Publish sends an event to all subscribers (non-blocking).
func Publish(e Event) {
	Default.Publish(e)
}

func (c *Collector) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a receive-only channel for events. buf is channel size.
func (c *Collector) Subscribe(buf int) <-chan Event {
	ch := make(chan Event, buf)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

// FileSink writes every event (JSON encoded) to w, filtering by event types if provided.
func FileSink(w io.Writer, filters ...EventType) {
	want := map[EventType]bool{}
	for _, f := range filters {
		want[f] = true
	}
	go func() {
		enc := json.NewEncoder(w)
		for ev := range Default.Subscribe(100) {
			if len(want) > 0 && !want[ev.EventType] {
				continue
			}
			_ = enc.Encode(ev)
		}
	}()
}
