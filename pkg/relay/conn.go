package relay

// Conn is the duplex transport handle the relay core drives. Implementations
// wrap a live socket; the registry owns exactly one Conn per open connection.
type Conn interface {
	// Send queues an encoded frame for delivery without blocking. It reports
	// false when the frame was not accepted, either because the connection
	// is closing or because its send buffer is full; callers treat both as a
	// best-effort drop.
	Send(data []byte) bool

	// Open reports whether the transport is currently writable.
	Open() bool

	// Close tears down the underlying transport. Calling it more than once
	// is safe.
	Close() error
}
