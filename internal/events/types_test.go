package events

import (
	"testing"

	"github.com/relayd/relayd/internal/events/bus"
)

func TestNewClientConnected(t *testing.T) {
	e := NewClientConnected("client-1")

	if e.Type != ClientConnected {
		t.Errorf("Type = %q, want %q", e.Type, ClientConnected)
	}
	if e.Source != sourceGateway {
		t.Errorf("Source = %q, want %q", e.Source, sourceGateway)
	}
	if got := ClientID(e); got != "client-1" {
		t.Errorf("ClientID = %q, want client-1", got)
	}
}

func TestNewClientDisconnected(t *testing.T) {
	e := NewClientDisconnected("client-2")

	if e.Type != ClientDisconnected {
		t.Errorf("Type = %q, want %q", e.Type, ClientDisconnected)
	}
	if got := ClientID(e); got != "client-2" {
		t.Errorf("ClientID = %q, want client-2", got)
	}
}

func TestClientIDMissing(t *testing.T) {
	if got := ClientID(nil); got != "" {
		t.Errorf("ClientID(nil) = %q, want empty", got)
	}

	e := bus.NewEvent("relay.client.connected", "test", nil)
	if got := ClientID(e); got != "" {
		t.Errorf("ClientID without data = %q, want empty", got)
	}

	e = bus.NewEvent("relay.client.connected", "test", map[string]interface{}{"client_id": 7})
	if got := ClientID(e); got != "" {
		t.Errorf("ClientID with non-string id = %q, want empty", got)
	}
}

func TestLifecycleSubjectsMatchWildcard(t *testing.T) {
	// Both lifecycle subjects must sit under the SubjectClientAll pattern
	for _, subject := range []string{ClientConnected, ClientDisconnected} {
		if want := "relay.client."; len(subject) <= len(want) || subject[:len(want)] != want {
			t.Errorf("subject %q is outside the relay.client namespace", subject)
		}
	}
}
