// Package websocket binds the WebSocket transport to the relay core: it
// upgrades connections, runs the per-client pumps and feeds transport
// events into the dispatcher.
package websocket

import (
	"github.com/gin-gonic/gin"

	"github.com/relayd/relayd/internal/common/config"
	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/events/bus"
	"github.com/relayd/relayd/pkg/relay"
)

// Gateway owns the relay dispatcher and its WebSocket transport binding.
type Gateway struct {
	Dispatcher *relay.Dispatcher
	Handler    *Handler
	logger     *logger.Logger
}

// NewGateway wires the application handler into a dispatcher and attaches
// the WebSocket transport. Connection lifecycle events are published to
// eventBus when one is provided.
func NewGateway(app relay.Handler, eventBus bus.EventBus, cfg config.GatewayConfig, log *logger.Logger) *Gateway {
	dispatcher := relay.NewDispatcher(app, log.Zap())
	registerLifecycleEvents(dispatcher, eventBus, log)

	return &Gateway{
		Dispatcher: dispatcher,
		Handler:    NewHandler(dispatcher, cfg, log),
		logger:     log,
	}
}

// SetupRoutes adds the WebSocket endpoint to the Gin engine.
func (g *Gateway) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", g.Handler.HandleConnection)
}

// GetClientCount returns the number of currently connected clients.
func (g *Gateway) GetClientCount() int {
	return g.Dispatcher.GetClientCount()
}

// Close terminates every client connection and stops the dispatcher. It
// blocks until shutdown completes; the dispatcher loop must be running.
func (g *Gateway) Close() {
	g.Dispatcher.Close()
}
