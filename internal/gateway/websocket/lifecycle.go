package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/events"
	"github.com/relayd/relayd/internal/events/bus"
	"github.com/relayd/relayd/pkg/relay"
)

// registerLifecycleEvents taps the dispatcher's connection hooks and
// publishes client connect/disconnect events to the bus. Publishing is
// fire-and-forget: a bus failure is logged and never reaches the relay.
func registerLifecycleEvents(d *relay.Dispatcher, eventBus bus.EventBus, log *logger.Logger) {
	if eventBus == nil {
		return
	}

	publish := func(subject string, event *bus.Event) {
		if err := eventBus.Publish(context.Background(), subject, event); err != nil {
			log.WithError(err).Warn("Failed to publish lifecycle event",
				zap.String("subject", subject))
		}
	}

	d.SetConnectionHooks(
		func(clientID string) {
			publish(events.ClientConnected, events.NewClientConnected(clientID))
		},
		func(clientID string) {
			publish(events.ClientDisconnected, events.NewClientDisconnected(clientID))
		},
	)
}
