package relay

import "testing"

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	conn := newFakeConn()

	reg.Register("a", conn)

	got, ok := reg.Get("a")
	if !ok {
		t.Fatal("Expected connection for id a")
	}
	if got != Conn(conn) {
		t.Error("Got a different connection than registered")
	}
	if reg.Count() != 1 {
		t.Errorf("Expected count 1, got %d", reg.Count())
	}
}

func TestRegistryGetAbsent(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Get("nonexistent"); ok {
		t.Error("Expected no connection for unknown id")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", newFakeConn())

	if !reg.Unregister("a") {
		t.Error("Expected first unregister to report presence")
	}
	if reg.Unregister("a") {
		t.Error("Expected second unregister to be a no-op")
	}
	if reg.Count() != 0 {
		t.Errorf("Expected count 0, got %d", reg.Count())
	}
}

func TestRegistryForEachVisitsAll(t *testing.T) {
	reg := NewRegistry()
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		reg.Register(id, newFakeConn())
	}

	visited := make(map[string]int)
	reg.ForEach(func(id string, c Conn) {
		visited[id]++
	})

	for _, id := range ids {
		if visited[id] != 1 {
			t.Errorf("Expected id %s visited once, got %d", id, visited[id])
		}
	}
}

func TestRegistryForEachContinuesPastClosedConn(t *testing.T) {
	reg := NewRegistry()
	closed := newFakeConn()
	_ = closed.Close()

	reg.Register("a", newFakeConn())
	reg.Register("b", closed)
	reg.Register("c", newFakeConn())

	var visited int
	reg.ForEach(func(id string, c Conn) {
		visited++
	})
	if visited != 3 {
		t.Errorf("Expected 3 visits including the closed conn, got %d", visited)
	}
}
