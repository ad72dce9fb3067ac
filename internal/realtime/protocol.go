// Package realtime is the websocket gateway. Sockets authenticate on connect,
// subscribe to the rooms they belong to and receive the events emitted for
// those rooms plus their owner's live notifications.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Inbound events
const (
	EventSubscribe   = "room:subscribe"
	EventUnsubscribe = "room:unsubscribe"
)

// Outbound events owned by the gateway. Domain events are named by the
// services that emit them.
const (
	EventConnected           = "connected"
	EventSubscribed          = "room:subscribed"
	EventUnsubscribed        = "room:unsubscribed"
	EventNotificationCreated = "notification:created"
	EventError               = "error"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRequest is the data of room:subscribe and room:unsubscribe, and of
// their acknowledgements.
type RoomRequest struct {
	RoomID uint64 `json:"roomId"`
}

// ErrorData is the data of an error event.
type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Event   string `json:"event,omitempty"`
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		data = p
	case []byte:
		data = p
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
		}
		data = b
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// Message kinds carried on a room topic.
const (
	kindBroadcast = "broadcast"
	kindEvict     = "evict"
	kindClose     = "close"
)

// roomMessage travels on the bus so that every gateway instance applies the
// same delivery to its local sockets.
type roomMessage struct {
	Kind   string          `json:"kind"`
	RoomID uint64          `json:"roomId"`
	UserID uint64          `json:"userId,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}
