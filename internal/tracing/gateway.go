package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const gatewayTracerName = "relayd-gateway"

func gatewayTracer() trace.Tracer {
	return Tracer(gatewayTracerName)
}

// TraceConnection starts a span covering the lifetime of a WebSocket
// connection. Caller must call span.End() when the connection closes.
func TraceConnection(ctx context.Context, clientID, remoteAddr string) (context.Context, trace.Span) {
	ctx, span := gatewayTracer().Start(ctx, "ws.connection",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	span.SetAttributes(
		attribute.String("client_id", clientID),
		attribute.String("net.peer.addr", remoteAddr),
	)
	return ctx, span
}

// TraceConnectionClose records the close reason on the connection span.
func TraceConnectionClose(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// TraceInboundFrame creates a single span for a frame received from a client.
func TraceInboundFrame(ctx context.Context, clientID string, size int) {
	_, span := gatewayTracer().Start(ctx, "ws.frame.in",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("client_id", clientID),
		attribute.Int("frame.size", size),
	)
}

// TraceBroadcast creates a single span for a fan-out to connected clients.
func TraceBroadcast(ctx context.Context, messageType string, recipients int) {
	_, span := gatewayTracer().Start(ctx, "relay.broadcast",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("message.type", messageType),
		attribute.Int("recipients", recipients),
	)
}
