package relay

import "context"

// Handler is the application plugged into the dispatcher. Implementations
// supply the message semantics (chat, game state, dashboard feeds); the
// core supplies identity, registration and routing.
//
// Callbacks run sequentially on the dispatcher goroutine, so no two of them
// execute at once and the state value needs no locking of its own.
type Handler interface {
	// NewState builds the application state threaded into every callback.
	// It is called once, before the first connection is accepted. The core
	// never inspects the returned value.
	NewState() any

	// OnConnect runs exactly once per connection, after registration.
	OnConnect(ctx context.Context, state any, clientID string, r *Router)

	// OnMessage runs once per well-formed inbound frame, in arrival order
	// for that connection.
	OnMessage(ctx context.Context, state any, clientID string, msg *Message, r *Router)

	// OnDisconnect runs exactly once per connection, after it has been
	// removed from the registry.
	OnDisconnect(ctx context.Context, state any, clientID string, r *Router)
}
