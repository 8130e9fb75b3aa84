package relay

import "go.uber.org/zap"

// Router provides the fan-out primitives handlers use to send messages.
// Every operation is best-effort and fire-and-forget: dead or slow peers
// are skipped, never waited on, and never abort delivery to the rest.
type Router struct {
	registry *Registry
	logger   *zap.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(reg *Registry, log *zap.Logger) *Router {
	return &Router{registry: reg, logger: log}
}

// SendTo delivers a message to a single connection. An unknown id is a
// silent no-op; the caller may be racing a disconnect.
func (rt *Router) SendTo(id string, msg *Message) {
	data, err := msg.Encode()
	if err != nil {
		rt.logger.Error("failed to encode message",
			zap.String("type", msg.Type), zap.Error(err))
		return
	}
	conn, ok := rt.registry.Get(id)
	if !ok {
		rt.logger.Debug("send to unknown client", zap.String("client_id", id))
		return
	}
	if !conn.Open() {
		return
	}
	if !conn.Send(data) {
		rt.logger.Debug("dropped message to client",
			zap.String("client_id", id), zap.String("type", msg.Type))
	}
}

// ClientCount returns the number of registered connections.
func (rt *Router) ClientCount() int {
	return rt.registry.Count()
}

// BroadcastAll delivers a message to every registered connection. The
// envelope is encoded once and the same bytes go to each peer; connections
// that are not writable are skipped.
func (rt *Router) BroadcastAll(msg *Message) {
	rt.broadcast(msg, "")
}

// BroadcastExcept is BroadcastAll minus the connection matching excludeID.
func (rt *Router) BroadcastExcept(excludeID string, msg *Message) {
	rt.broadcast(msg, excludeID)
}

func (rt *Router) broadcast(msg *Message, excludeID string) {
	data, err := msg.Encode()
	if err != nil {
		rt.logger.Error("failed to encode message",
			zap.String("type", msg.Type), zap.Error(err))
		return
	}
	rt.registry.ForEach(func(id string, c Conn) {
		if id == excludeID {
			return
		}
		if !c.Open() {
			return
		}
		if !c.Send(data) {
			rt.logger.Debug("dropped broadcast to client",
				zap.String("client_id", id), zap.String("type", msg.Type))
		}
	})
}
