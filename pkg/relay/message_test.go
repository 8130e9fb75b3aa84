package relay

import (
	"encoding/json"
	"testing"
)

func TestParseValidFrame(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"sendMessage","payload":{"text":"hi"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if msg.Type != "sendMessage" {
		t.Errorf("Expected type sendMessage, got %q", msg.Type)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := msg.ParsePayload(&payload); err != nil {
		t.Fatalf("ParsePayload failed: %v", err)
	}
	if payload.Text != "hi" {
		t.Errorf("Expected text hi, got %q", payload.Text)
	}
}

func TestParseFrameWithoutPayload(t *testing.T) {
	msg, err := Parse([]byte(`{"type":"history"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if msg.Type != "history" {
		t.Errorf("Expected type history, got %q", msg.Type)
	}

	var payload struct {
		Limit int `json:"limit"`
	}
	if err := msg.ParsePayload(&payload); err != nil {
		t.Errorf("ParsePayload on empty payload should be a no-op, got %v", err)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("not json at all")); err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
}

func TestParseMissingType(t *testing.T) {
	if _, err := Parse([]byte(`{"payload":{"text":"hi"}}`)); err == nil {
		t.Fatal("Expected error for frame without type")
	}
}

func TestNewErrorShape(t *testing.T) {
	msg, err := NewError("invalid message format")
	if err != nil {
		t.Fatalf("NewError failed: %v", err)
	}
	if msg.Type != TypeError {
		t.Errorf("Expected type %q, got %q", TypeError, msg.Type)
	}

	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	want := `{"type":"error","payload":{"message":"invalid message format"}}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	original, err := NewMessage("welcome", map[string]string{"id": "client-1"})
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}

	data, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Type != original.Type {
		t.Errorf("Expected type %q, got %q", original.Type, parsed.Type)
	}

	var payload map[string]string
	if err := json.Unmarshal(parsed.Payload, &payload); err != nil {
		t.Fatalf("Unmarshal payload failed: %v", err)
	}
	if payload["id"] != "client-1" {
		t.Errorf("Expected id client-1, got %q", payload["id"])
	}
}
