package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayd/relayd/internal/chat"
	"github.com/relayd/relayd/internal/common/config"
	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/events"
	"github.com/relayd/relayd/internal/events/bus"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/pkg/relay"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      "debug",
		Format:     "console",
		OutputPath: "stdout",
	})
	require.NoError(t, err)
	return log
}

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		MaxMessageSize: 512 * 1024,
		SendBufferSize: 256,
	}
}

type gatewayFixture struct {
	server *httptest.Server
	gw     *Gateway
	bus    *bus.MemoryEventBus
	store  *history.MemoryStore
}

// startGateway runs a full relay (chat handler, memory history, memory bus)
// behind a real HTTP server.
func startGateway(t *testing.T, cfg config.GatewayConfig) *gatewayFixture {
	t.Helper()

	log := testLogger(t)
	memBus := bus.NewMemoryEventBus(log)
	store := history.NewMemoryStore(100)
	app := chat.NewHandler(store, 50, log)
	gw := NewGateway(app, memBus, cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		gw.Dispatcher.Run(ctx)
		close(loopDone)
	}()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	gw.SetupRoutes(router)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		gw.Close()
		server.Close()
		cancel()
		<-loopDone
	})

	return &gatewayFixture{server: server, gw: gw, bus: memBus, store: store}
}

func (f *gatewayFixture) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return data
}

func readEnvelope(t *testing.T, conn *websocket.Conn) *relay.Message {
	t.Helper()

	msg, err := relay.Parse(readFrame(t, conn))
	require.NoError(t, err)
	return msg
}

func readWelcome(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	msg := readEnvelope(t, conn)
	require.Equal(t, chat.TypeWelcome, msg.Type)
	var payload chat.WelcomePayload
	require.NoError(t, msg.ParsePayload(&payload))
	require.NotEmpty(t, payload.ClientID)
	return payload.ClientID
}

func writeText(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()

	require.NoError(t, conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func TestGatewayWelcomeAndEcho(t *testing.T) {
	f := startGateway(t, testGatewayConfig())

	conn1 := f.dial(t, nil)
	conn2 := f.dial(t, nil)

	id1 := readWelcome(t, conn1)
	id2 := readWelcome(t, conn2)
	assert.NotEqual(t, id1, id2)

	writeText(t, conn1, `{"type":"sendMessage","payload":{"text":"hi"}}`)

	want := `{"type":"systemMessage","payload":{"text":"echo:hi"}}`
	assert.Equal(t, want, string(readFrame(t, conn1)))
	assert.Equal(t, want, string(readFrame(t, conn2)))
}

func TestGatewayMalformedFrameKeepsConnection(t *testing.T) {
	f := startGateway(t, testGatewayConfig())

	conn1 := f.dial(t, nil)
	conn2 := f.dial(t, nil)
	readWelcome(t, conn1)
	readWelcome(t, conn2)

	writeText(t, conn1, "this is not json")

	errMsg := readEnvelope(t, conn1)
	require.Equal(t, relay.TypeError, errMsg.Type)
	var payload relay.ErrorPayload
	require.NoError(t, errMsg.ParsePayload(&payload))
	assert.NotEmpty(t, payload.Message)

	// The sender stays registered and open: a valid frame still relays,
	// and the bystander saw nothing in between.
	writeText(t, conn1, `{"type":"sendMessage","payload":{"text":"still here"}}`)

	want := `{"type":"systemMessage","payload":{"text":"echo:still here"}}`
	assert.Equal(t, want, string(readFrame(t, conn1)))
	assert.Equal(t, want, string(readFrame(t, conn2)))
}

func TestGatewayClientCountSequence(t *testing.T) {
	f := startGateway(t, testGatewayConfig())

	require.Equal(t, 0, f.gw.GetClientCount())

	conn1 := f.dial(t, nil)
	readWelcome(t, conn1)
	require.Equal(t, 1, f.gw.GetClientCount())

	conn2 := f.dial(t, nil)
	readWelcome(t, conn2)
	require.Equal(t, 2, f.gw.GetClientCount())

	require.NoError(t, conn1.Close())
	require.Eventually(t, func() bool { return f.gw.GetClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestGatewayHistoryReplay(t *testing.T) {
	f := startGateway(t, testGatewayConfig())

	conn := f.dial(t, nil)
	readWelcome(t, conn)

	writeText(t, conn, `{"type":"sendMessage","payload":{"text":"first"}}`)
	readFrame(t, conn) // own echo

	writeText(t, conn, `{"type":"history","payload":{"limit":10}}`)

	msg := readEnvelope(t, conn)
	require.Equal(t, chat.TypeHistory, msg.Type)
	var payload chat.HistoryPayload
	require.NoError(t, msg.ParsePayload(&payload))
	require.Len(t, payload.Messages, 1)
	assert.Equal(t, "first", payload.Messages[0].Content)
	assert.NotEmpty(t, payload.Messages[0].ClientID)
}

func TestGatewayOriginAllowlist(t *testing.T) {
	cfg := testGatewayConfig()
	cfg.AllowedOrigins = []string{"http://app.example.com"}
	f := startGateway(t, cfg)

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	// Disallowed browser origin is refused during the handshake.
	badHeader := http.Header{"Origin": []string{"http://evil.example.com"}}
	conn, resp, err := dialer.Dial(wsURL, badHeader)
	require.Error(t, err)
	if conn != nil {
		_ = conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Allowed origin connects.
	goodHeader := http.Header{"Origin": []string{"http://app.example.com"}}
	conn = f.dial(t, goodHeader)
	readWelcome(t, conn)

	// Non-browser clients carry no Origin header and are admitted.
	conn = f.dial(t, nil)
	readWelcome(t, conn)
}

func TestGatewayPublishesLifecycleEvents(t *testing.T) {
	f := startGateway(t, testGatewayConfig())

	var mu sync.Mutex
	var seen []string
	sub, err := f.bus.Subscribe(events.SubjectClientAll, func(ctx context.Context, e *bus.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.Type+":"+events.ClientID(e))
		return nil
	})
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()

	conn := f.dial(t, nil)
	id := readWelcome(t, conn)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, events.ClientConnected+":"+id, seen[0])
	assert.Equal(t, events.ClientDisconnected+":"+id, seen[1])
}

func TestGatewayMaxMessageSize(t *testing.T) {
	cfg := testGatewayConfig()
	cfg.MaxMessageSize = 64
	f := startGateway(t, cfg)

	conn := f.dial(t, nil)
	readWelcome(t, conn)

	oversized := `{"type":"sendMessage","payload":{"text":"` + strings.Repeat("x", 128) + `"}}`
	writeText(t, conn, oversized)

	// The server drops the connection for exceeding the read limit.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	require.Eventually(t, func() bool { return f.gw.GetClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestGatewayCloseDisconnectsClients(t *testing.T) {
	f := startGateway(t, testGatewayConfig())

	conn1 := f.dial(t, nil)
	conn2 := f.dial(t, nil)
	readWelcome(t, conn1)
	readWelcome(t, conn2)
	require.Equal(t, 2, f.gw.GetClientCount())

	f.gw.Close()

	require.Equal(t, 0, f.gw.GetClientCount())
	for _, conn := range []*websocket.Conn{conn1, conn2} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)
	}
}
