package ws

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"messenger-service/internal/observability"
	"messenger-service/internal/services"
)

// PreviewWebSocketHandler streams the live chat-preview feed to a client.
// Each connection owns one preview subscription; closing the socket cancels
// it, so there is no way to leak a stream past the connection's lifetime.
type PreviewWebSocketHandler struct {
	previews  *services.PreviewService
	jwtSecret string
}

// NewPreviewWebSocketHandler constructs a PreviewWebSocketHandler.
func NewPreviewWebSocketHandler(previews *services.PreviewService, jwtSecret string) *PreviewWebSocketHandler {
	return &PreviewWebSocketHandler{previews: previews, jwtSecret: jwtSecret}
}

// Handle upgrades the connection and forwards preview emissions until the
// client goes away.
func (h *PreviewWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := authenticate(c, h.jwtSecret)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}

	observability.IncWSActive("previews")
	observability.IncWSEvent("previews", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.previews", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("previews", 0, "ws_connect", info, 0, ""),
	})

	// The subscription must outlive the handshake request context, which
	// the server cancels when Handle returns.
	stream := h.previews.Subscribe(context.Background(), userID)

	done := make(chan struct{})

	// Reader goroutine: detects the client closing the socket.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			stream.Cancel()
			observability.DecWSActive("previews")
			observability.IncWSEvent("previews", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.previews", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("previews", 0, "ws_disconnect", info, time.Since(info.ConnectedAt), ""),
			})
			conn.Close()
		}()
		for {
			select {
			case <-done:
				return
			case previews, open := <-stream.C:
				if !open {
					return
				}
				if err := conn.WriteJSON(gin.H{"type": "previews", "previews": previews}); err != nil {
					observability.IncWSEvent("previews", "ws_error")
					return
				}
			}
		}
	}()
}
