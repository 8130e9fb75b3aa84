// Package chat implements the relay's message handling: a welcome frame on
// connect, echo broadcasts for chat messages, and history replay on request.
package chat

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/common/stringutil"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/tracing"
	"github.com/relayd/relayd/pkg/relay"
)

// Message types on the wire.
const (
	TypeWelcome       = "welcome"
	TypeSendMessage   = "sendMessage"
	TypeSystemMessage = "systemMessage"
	TypeHistory       = "history"
)

// WelcomePayload greets a client with its assigned id.
type WelcomePayload struct {
	ClientID string `json:"clientId"`
}

// SendMessagePayload is the client's chat message.
type SendMessagePayload struct {
	Text string `json:"text"`
}

// SystemMessagePayload is a message originated by the relay itself.
type SystemMessagePayload struct {
	Text string `json:"text"`
}

// HistoryRequestPayload asks for recent messages. A zero limit requests the
// server default.
type HistoryRequestPayload struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryPayload replays stored messages, oldest first.
type HistoryPayload struct {
	Messages []history.Entry `json:"messages"`
}

// State tracks per-client session data between callbacks. Callbacks run
// sequentially on the dispatcher goroutine, so no locking is needed.
type State struct {
	connectedAt map[string]time.Time
}

// Handler relays chat messages between connected clients.
type Handler struct {
	store        history.Store
	historyLimit int
	log          *logger.Logger
	relayed      atomic.Int64
}

// NewHandler creates the chat handler. historyLimit caps how many messages a
// single history request may return.
func NewHandler(store history.Store, historyLimit int, log *logger.Logger) *Handler {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Handler{store: store, historyLimit: historyLimit, log: log}
}

// Relayed returns how many chat messages have been broadcast since start.
func (h *Handler) Relayed() int64 {
	return h.relayed.Load()
}

// NewState creates the session state threaded through the callbacks.
func (h *Handler) NewState() any {
	return &State{connectedAt: make(map[string]time.Time)}
}

// OnConnect greets the new client with its assigned id.
func (h *Handler) OnConnect(ctx context.Context, state any, clientID string, r *relay.Router) {
	st := state.(*State)
	st.connectedAt[clientID] = time.Now()

	welcome, err := relay.NewMessage(TypeWelcome, WelcomePayload{ClientID: clientID})
	if err != nil {
		h.log.WithError(err).Error("Failed to build welcome message")
		return
	}
	r.SendTo(clientID, welcome)

	h.log.WithClientID(clientID).Debug("Client joined")
}

// OnMessage handles one parsed frame from a client.
func (h *Handler) OnMessage(ctx context.Context, state any, clientID string, msg *relay.Message, r *relay.Router) {
	switch msg.Type {
	case TypeSendMessage:
		h.handleSendMessage(ctx, clientID, msg, r)
	case TypeHistory:
		h.handleHistory(ctx, clientID, msg, r)
	default:
		h.log.WithClientID(clientID).Debug("Unknown message type",
			zap.String("type", msg.Type))
		h.sendError(clientID, "unknown message type: "+msg.Type, r)
	}
}

// OnDisconnect logs the session duration and drops session state.
func (h *Handler) OnDisconnect(ctx context.Context, state any, clientID string, r *relay.Router) {
	st := state.(*State)
	if since, ok := st.connectedAt[clientID]; ok {
		delete(st.connectedAt, clientID)
		h.log.WithClientID(clientID).Info("Client session ended",
			zap.Duration("duration", time.Since(since)))
		return
	}
	h.log.WithClientID(clientID).Debug("Client left")
}

func (h *Handler) handleSendMessage(ctx context.Context, clientID string, msg *relay.Message, r *relay.Router) {
	var p SendMessagePayload
	if err := msg.ParsePayload(&p); err != nil {
		h.log.WithClientID(clientID).WithError(err).Debug("Bad sendMessage payload")
		h.sendError(clientID, "invalid sendMessage payload", r)
		return
	}

	// Persist before fan-out; a storage failure must not stop the relay.
	if _, err := h.store.Append(ctx, clientID, p.Text); err != nil {
		h.log.WithClientID(clientID).WithError(err).Error("Failed to store message")
	}

	echo, err := relay.NewMessage(TypeSystemMessage, SystemMessagePayload{Text: "echo:" + p.Text})
	if err != nil {
		h.log.WithError(err).Error("Failed to build system message")
		return
	}
	r.BroadcastAll(echo)
	h.relayed.Add(1)
	tracing.TraceBroadcast(ctx, TypeSystemMessage, r.ClientCount())

	h.log.WithClientID(clientID).Debug("Relayed message",
		zap.String("text", stringutil.TruncateStringWithEllipsis(p.Text, 64)))
}

func (h *Handler) handleHistory(ctx context.Context, clientID string, msg *relay.Message, r *relay.Router) {
	var p HistoryRequestPayload
	if err := msg.ParsePayload(&p); err != nil {
		h.log.WithClientID(clientID).WithError(err).Debug("Bad history payload")
		h.sendError(clientID, "invalid history payload", r)
		return
	}

	limit := p.Limit
	if limit <= 0 || limit > h.historyLimit {
		limit = h.historyLimit
	}

	entries, err := h.store.Recent(ctx, limit)
	if err != nil {
		h.log.WithClientID(clientID).WithError(err).Error("Failed to load history")
		h.sendError(clientID, "history unavailable", r)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	resp, err := relay.NewMessage(TypeHistory, HistoryPayload{Messages: entries})
	if err != nil {
		h.log.WithError(err).Error("Failed to build history message")
		return
	}
	r.SendTo(clientID, resp)
}

func (h *Handler) sendError(clientID, text string, r *relay.Router) {
	errMsg, err := relay.NewError(text)
	if err != nil {
		h.log.WithError(err).Error("Failed to build error message")
		return
	}
	r.SendTo(clientID, errMsg)
}
