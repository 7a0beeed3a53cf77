// Package events defines the NATS event payloads exchanged between the HTTP
// server and the speech worker.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventHeader carries the identifiers common to every event.
type EventHeader struct {
	EventID   string    `json:"event_id"`
	OrderID   int       `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHeader builds a header for the given order with a fresh event ID.
func NewHeader(orderID int) EventHeader {
	return EventHeader{
		EventID:   uuid.NewString(),
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
	}
}

// OrderCreatedEvent is published when a new order has been parsed and its
// confirmation script built. The worker synthesizes the script ahead of the
// confirmation call.
type OrderCreatedEvent struct {
	Header EventHeader `json:"header"`
	Script string      `json:"script"`
}

// ScriptAudioReadyEvent is the worker's reply once the confirmation audio has
// been uploaded to the object store.
type ScriptAudioReadyEvent struct {
	Header   EventHeader `json:"header"`
	AudioKey string      `json:"audio_key"`
}
