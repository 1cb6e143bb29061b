// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "encoding/json"

// Message is one pre-encoded text frame to broadcast
type Message struct {
	Data []byte
}

// envelope tags a payload with the topic the dashboard dispatches on
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// NewJSONMessage wraps v in a {"type", "data"} envelope
func NewJSONMessage(topic string, v interface{}) (Message, error) {
	data, err := json.Marshal(envelope{Type: topic, Data: v})
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
