package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/tracing"
	"github.com/relayd/relayd/pkg/relay"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

// Client is a single WebSocket connection bound to the relay core. It
// implements relay.Conn: the dispatcher owns its registration and the
// router delivers frames through Send.
type Client struct {
	id         string
	conn       *websocket.Conn
	dispatcher *relay.Dispatcher
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	readLimit  int64
	logger     *logger.Logger
}

// newClient wraps an upgraded connection. The identity is assigned by the
// dispatcher afterwards, before either pump starts.
func newClient(conn *websocket.Conn, sendBufferSize int, readLimit int64, d *relay.Dispatcher, log *logger.Logger) *Client {
	return &Client{
		conn:       conn,
		dispatcher: d,
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		readLimit:  readLimit,
		logger:     log,
	}
}

// Send queues a frame for delivery. It never blocks: a full buffer or a
// closing connection drops the frame and reports false.
func (c *Client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Open reports whether the connection is still writable.
func (c *Client) Open() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Close tears the connection down. A close frame is offered to the peer
// before the socket is closed; repeated calls are no-ops.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(writeWait)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = c.conn.Close()
	})
	return err
}

// ReadPump feeds inbound frames to the dispatcher until the transport
// closes or errors. Both endings request the same cleanup, which the
// dispatcher applies once. Returns the error that ended the connection,
// nil for an expected close.
func (c *Client) ReadPump(ctx context.Context) error {
	defer func() {
		c.dispatcher.Drop(c.id)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(c.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Error("WebSocket read error")
				return err
			}
			return nil
		}

		tracing.TraceInboundFrame(ctx, c.id, len(data))
		c.dispatcher.Inbound(c.id, data)
	}
}

// WritePump drains the send queue to the socket and keeps the connection
// alive with pings. It exits when the connection closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			if !c.writeFrame(message) {
				return
			}
			// Flush whatever queued while the first write was in flight.
			// Each envelope stays its own frame so peers parse one message
			// per read.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if !c.writeFrame(<-c.send) {
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeFrame(message []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.WithError(err).Debug("WebSocket write error")
		return false
	}
	return true
}
