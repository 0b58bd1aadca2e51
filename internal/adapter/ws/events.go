package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/ActionForge/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent wraps payload in a Message of the given type and sends it
// to every client. It is a no-op while nobody is connected.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	if h.ConnectionCount() == 0 {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "ws event payload not encodable", "type", eventType, "error", err)
		return
	}
	h.Broadcast(ctx, Message{Type: eventType, Payload: raw})
}
