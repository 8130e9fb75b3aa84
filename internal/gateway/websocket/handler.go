package websocket

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relayd/relayd/internal/common/config"
	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/tracing"
	"github.com/relayd/relayd/pkg/relay"
)

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the relay dispatcher.
type Handler struct {
	dispatcher *relay.Dispatcher
	upgrader   gorillaws.Upgrader
	cfg        config.GatewayConfig
	logger     *logger.Logger
}

// NewHandler creates the upgrade handler. The origin allowlist comes from
// the gateway configuration.
func NewHandler(d *relay.Dispatcher, cfg config.GatewayConfig, log *logger.Logger) *Handler {
	h := &Handler{
		dispatcher: d,
		cfg:        cfg,
		logger:     log.WithFields(zap.String("component", "ws_handler")),
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     newOriginChecker(cfg.AllowedOrigins, h.logger),
	}
	return h
}

// HandleConnection upgrades the request and runs the connection until the
// peer goes away. The dispatcher assigns the identity and performs the
// registration; this handler only owns the transport pumps.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		h.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}

	client := newClient(conn, h.cfg.SendBufferSize, h.cfg.MaxMessageSize, h.dispatcher, h.logger)
	client.id = h.dispatcher.Accept(client)
	client.logger = h.logger.WithClientID(client.id)

	client.logger.Debug("WebSocket connection established",
		zap.String("remote_addr", c.Request.RemoteAddr))

	ctx, span := tracing.TraceConnection(c.Request.Context(), client.id, c.Request.RemoteAddr)
	defer span.End()

	go client.WritePump()
	readErr := client.ReadPump(ctx)
	tracing.TraceConnectionClose(span, readErr)
}
