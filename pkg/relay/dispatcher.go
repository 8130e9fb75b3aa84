package relay

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type eventKind int

const (
	evConnect eventKind = iota
	evMessage
	evDisconnect
)

// event is one unit of work for the dispatcher loop. Connect, message and
// disconnect events share a single FIFO channel so that per-connection
// ordering (register before first frame, frames in arrival order, cleanup
// last) holds without extra synchronization.
type event struct {
	kind eventKind
	id   string
	conn Conn   // evConnect only
	data []byte // evMessage only
}

const eventQueueSize = 256

// Dispatcher wires transport events to the Handler. It owns the registry:
// every registry mutation and every handler callback happens on the Run
// goroutine.
type Dispatcher struct {
	registry *Registry
	router   *Router
	handler  Handler
	state    any
	logger   *zap.Logger

	events chan event
	quit   chan struct{} // closed by Close to request shutdown
	done   chan struct{} // closed when the loop has exited

	closeOnce sync.Once

	onConnect    func(clientID string)
	onDisconnect func(clientID string)
}

// NewDispatcher creates a dispatcher driving the given handler. The
// handler's state is created here, before any connection can arrive.
func NewDispatcher(h Handler, log *zap.Logger) *Dispatcher {
	reg := NewRegistry()
	return &Dispatcher{
		registry: reg,
		router:   NewRouter(reg, log),
		handler:  h,
		state:    h.NewState(),
		logger:   log,
		events:   make(chan event, eventQueueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetConnectionHooks installs optional lifecycle taps. Each fires exactly
// once per connection, on the dispatcher goroutine, right after the
// corresponding registry change. Must be set before Run.
func (d *Dispatcher) SetConnectionHooks(onConnect, onDisconnect func(clientID string)) {
	d.onConnect = onConnect
	d.onDisconnect = onDisconnect
}

// Router returns the routing helpers bound to this dispatcher's registry.
func (d *Dispatcher) Router() *Router {
	return d.router
}

// GetClientCount returns the number of registered connections.
func (d *Dispatcher) GetClientCount() int {
	return d.registry.Count()
}

// Accept assigns an identity to a newly accepted transport and queues its
// registration. The returned id is final; registration and OnConnect are
// processed by the loop before any of the connection's frames. After
// shutdown has begun the transport is closed instead of registered.
func (d *Dispatcher) Accept(c Conn) string {
	id := NewID()
	if !d.enqueue(event{kind: evConnect, id: id, conn: c}) {
		_ = c.Close()
	}
	return id
}

// Inbound queues a raw frame read from the connection's transport.
func (d *Dispatcher) Inbound(id string, frame []byte) {
	d.enqueue(event{kind: evMessage, id: id, data: frame})
}

// Drop queues disconnect cleanup for a connection. The transport close and
// transport error paths may both call it; cleanup runs once.
func (d *Dispatcher) Drop(id string) {
	d.enqueue(event{kind: evDisconnect, id: id})
}

// enqueue offers an event to the loop. It reports false once the loop has
// exited, so callers never block against a dead dispatcher.
func (d *Dispatcher) enqueue(ev event) bool {
	select {
	case <-d.done:
		return false
	default:
	}
	select {
	case d.events <- ev:
		return true
	case <-d.done:
		return false
	}
}

// Run processes events until ctx is cancelled or Close is called. It must
// be running for Accept, Inbound and Drop to make progress.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("dispatcher started")
	defer d.logger.Info("dispatcher stopped")
	defer func() {
		close(d.done)
		d.sweep()
	}()

	for {
		select {
		case <-ctx.Done():
			d.shutdown(ctx)
			return
		case <-d.quit:
			d.shutdown(ctx)
			return
		case ev := <-d.events:
			d.handleEvent(ctx, ev)
		}
	}
}

// Close requests shutdown and blocks until the loop has terminated every
// connection and exited. Safe to call more than once, but not from inside
// a handler callback.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.quit) })
	<-d.done
}

func (d *Dispatcher) handleEvent(ctx context.Context, ev event) {
	switch ev.kind {
	case evConnect:
		d.registry.Register(ev.id, ev.conn)
		if d.onConnect != nil {
			d.onConnect(ev.id)
		}
		d.logger.Debug("client connected", zap.String("client_id", ev.id))
		d.handler.OnConnect(ctx, d.state, ev.id, d.router)

	case evMessage:
		if _, ok := d.registry.Get(ev.id); !ok {
			// Frame raced its own disconnect; the connection is Closed and
			// gets no further callbacks.
			return
		}
		msg, err := Parse(ev.data)
		if err != nil {
			d.logger.Debug("malformed frame",
				zap.String("client_id", ev.id), zap.Error(err))
			d.sendError(ev.id, "invalid message format")
			return
		}
		d.handler.OnMessage(ctx, d.state, ev.id, msg, d.router)

	case evDisconnect:
		d.disconnect(ctx, ev.id)
	}
}

// disconnect removes the connection and fires OnDisconnect. The registry
// removal is the idempotency gate: a second cleanup request for the same
// id finds nothing to remove and invokes nothing.
func (d *Dispatcher) disconnect(ctx context.Context, id string) {
	if !d.registry.Unregister(id) {
		return
	}
	d.logger.Debug("client disconnected", zap.String("client_id", id))
	d.handler.OnDisconnect(ctx, d.state, id, d.router)
	if d.onDisconnect != nil {
		d.onDisconnect(id)
	}
}

func (d *Dispatcher) sendError(id, text string) {
	msg, err := NewError(text)
	if err != nil {
		d.logger.Error("failed to build error message", zap.Error(err))
		return
	}
	d.router.SendTo(id, msg)
}

// shutdown drains the queue, then closes every remaining connection. Late
// registrations are closed without ever registering (no new connections
// once shutdown begins); late frames are dropped; late disconnects still
// clean up normally.
func (d *Dispatcher) shutdown(ctx context.Context) {
	for {
		select {
		case ev := <-d.events:
			switch ev.kind {
			case evConnect:
				_ = ev.conn.Close()
			case evDisconnect:
				d.disconnect(ctx, ev.id)
			}
		default:
			d.closeAll(ctx)
			return
		}
	}
}

// closeAll terminates every registered connection, firing the single
// pending OnDisconnect for each.
func (d *Dispatcher) closeAll(ctx context.Context) {
	type record struct {
		id   string
		conn Conn
	}
	var records []record
	d.registry.ForEach(func(id string, c Conn) {
		records = append(records, record{id: id, conn: c})
	})
	for _, rec := range records {
		_ = rec.conn.Close()
		d.disconnect(ctx, rec.id)
	}
	d.logger.Info("all client connections closed", zap.Int("count", len(records)))
}

// sweep closes transports from registrations that raced the final drain.
// It runs after done is closed, when no new events can be queued.
func (d *Dispatcher) sweep() {
	for {
		select {
		case ev := <-d.events:
			if ev.kind == evConnect {
				_ = ev.conn.Close()
			}
		default:
			return
		}
	}
}
