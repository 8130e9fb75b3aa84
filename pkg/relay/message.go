// Package relay implements the core of the messaging relay: the connection
// registry, the broadcast/routing helpers and the dispatcher that drives a
// pluggable application handler.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TypeError is the envelope type of error responses produced by the core.
const TypeError = "error"

// Message is the wire envelope for all relay traffic, both directions. The
// payload shape belongs to the application handler; the core only parses
// and serializes the envelope.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the payload of TypeError envelopes.
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage creates a message with the given type and payload.
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}

// NewError creates an error message with a human-readable description.
func NewError(text string) (*Message, error) {
	return NewMessage(TypeError, ErrorPayload{Message: text})
}

// Parse decodes a wire frame into a message envelope. Frames that are not
// valid JSON or that carry no type are rejected.
func Parse(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message frame: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("message type is required")
	}
	return &msg, nil
}

// Encode serializes the envelope for the wire.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// ParsePayload parses the payload into the given struct.
func (m *Message) ParsePayload(v any) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
