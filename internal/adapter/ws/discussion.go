package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/ActionForge/internal/domain/discussion"
)

const requestReadTimeout = 30 * time.Second

// DiscussionRunner produces the event stream of one discussion.
type DiscussionRunner interface {
	Run(ctx context.Context, req discussion.Request) <-chan discussion.Event
}

// DiscussionHandler streams one discussion per connection. The client sends
// a single request JSON; the server writes every event as a text frame and
// closes after the stream ends.
type DiscussionHandler struct {
	runner DiscussionRunner
	hub    *Hub
}

// NewDiscussionHandler creates a handler. The hub only supplies the origin policy.
func NewDiscussionHandler(runner DiscussionRunner, hub *Hub) *DiscussionHandler {
	return &DiscussionHandler{runner: runner, hub: hub}
}

func (d *DiscussionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, d.hub.acceptOptions())
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = c.CloseNow() }()

	ctx := r.Context()
	readCtx, cancel := context.WithTimeout(ctx, requestReadTimeout)
	_, data, err := c.Read(readCtx)
	cancel()
	if err != nil {
		slog.Debug("discussion request read failed", "error", err)
		return
	}

	var req discussion.Request
	if err := json.Unmarshal(data, &req); err != nil {
		d.write(ctx, c, discussion.Event{Type: discussion.EventError, Error: "invalid request body"})
		_ = c.Close(websocket.StatusUnsupportedData, "invalid request")
		return
	}

	for ev := range d.runner.Run(ctx, req) {
		if err := d.write(ctx, c, ev); err != nil {
			// Keep draining so the producer can finish and record the run.
			if !errors.Is(err, context.Canceled) {
				slog.Debug("discussion event write failed", "error", err)
			}
			continue
		}
	}
	_ = c.Close(websocket.StatusNormalClosure, "")
}

func (d *DiscussionHandler) write(ctx context.Context, c *websocket.Conn, ev discussion.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(wctx, websocket.MessageText, data)
}
