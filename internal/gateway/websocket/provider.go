package websocket

import (
	"github.com/relayd/relayd/internal/common/config"
	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/events/bus"
	"github.com/relayd/relayd/pkg/relay"
)

// Provide creates the WebSocket gateway for the given application handler.
func Provide(cfg *config.Config, app relay.Handler, eventBus bus.EventBus, log *logger.Logger) *Gateway {
	return NewGateway(app, eventBus, cfg.Gateway, log)
}
