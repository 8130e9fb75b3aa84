// Package events provides event types and utilities for the relayd event system.
package events

import "github.com/relayd/relayd/internal/events/bus"

// Event types for client connection lifecycle
const (
	ClientConnected    = "relay.client.connected"
	ClientDisconnected = "relay.client.disconnected"
)

// SubjectClientAll subscribes to all client lifecycle events.
const SubjectClientAll = "relay.client.*"

// sourceGateway identifies the WebSocket gateway as the event producer.
const sourceGateway = "relayd-gateway"

// NewClientConnected builds the event published when a client finishes
// registration with the relay.
func NewClientConnected(clientID string) *bus.Event {
	return bus.NewEvent(ClientConnected, sourceGateway, map[string]interface{}{
		"client_id": clientID,
	})
}

// NewClientDisconnected builds the event published when a client's
// registration is removed.
func NewClientDisconnected(clientID string) *bus.Event {
	return bus.NewEvent(ClientDisconnected, sourceGateway, map[string]interface{}{
		"client_id": clientID,
	})
}

// ClientID extracts the client id from a lifecycle event. Returns an empty
// string when the event carries no client id.
func ClientID(e *bus.Event) string {
	if e == nil || e.Data == nil {
		return ""
	}
	id, _ := e.Data["client_id"].(string)
	return id
}
