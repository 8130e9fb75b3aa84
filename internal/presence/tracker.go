// Package presence maintains a live view of connected clients by observing
// the gateway's lifecycle events on the bus. It never touches the relay
// registry: the event stream is its only input, which keeps it correct for
// any bus-connected producer.
package presence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/events"
	"github.com/relayd/relayd/internal/events/bus"
)

// Stats is a point-in-time presence snapshot.
type Stats struct {
	Online        int      `json:"online"`
	Peak          int      `json:"peak"`
	TotalConnects int64    `json:"totalConnects"`
	ClientIDs     []string `json:"clientIds"`
}

// Tracker accumulates presence state from client lifecycle events.
type Tracker struct {
	mu     sync.Mutex
	online map[string]struct{}
	peak   int
	total  int64

	sub    bus.Subscription
	logger *logger.Logger
}

// NewTracker subscribes to client lifecycle events on the given bus.
func NewTracker(eventBus bus.EventBus, log *logger.Logger) (*Tracker, error) {
	t := &Tracker{
		online: make(map[string]struct{}),
		logger: log.WithFields(zap.String("component", "presence")),
	}

	sub, err := eventBus.Subscribe(events.SubjectClientAll, t.handleEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to client events: %w", err)
	}
	t.sub = sub
	return t, nil
}

func (t *Tracker) handleEvent(ctx context.Context, event *bus.Event) error {
	clientID := events.ClientID(event)
	if clientID == "" {
		t.logger.Warn("Lifecycle event without client id", zap.String("type", event.Type))
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Type {
	case events.ClientConnected:
		if _, ok := t.online[clientID]; ok {
			return nil
		}
		t.online[clientID] = struct{}{}
		t.total++
		if len(t.online) > t.peak {
			t.peak = len(t.online)
		}

	case events.ClientDisconnected:
		// Deletes are idempotent: a disconnect for an unknown id is a
		// harmless replay or a connect the tracker never saw.
		delete(t.online, clientID)
	}

	return nil
}

// Online returns the number of clients currently tracked as connected.
func (t *Tracker) Online() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.online)
}

// Snapshot returns the current presence stats. Client ids are sorted so the
// output is stable for diagnostics endpoints.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return Stats{
		Online:        len(t.online),
		Peak:          t.peak,
		TotalConnects: t.total,
		ClientIDs:     ids,
	}
}

// Close cancels the bus subscription. Accumulated stats remain readable.
func (t *Tracker) Close() error {
	if t.sub == nil {
		return nil
	}
	return t.sub.Unsubscribe()
}
