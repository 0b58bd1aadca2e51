// Package broadcast defines the port for broadcasting real-time events to connected clients.
package broadcast

import "context"

// Event types pushed to hub subscribers.
const (
	EventSwarmRunStarted  = "swarm.run.started"
	EventSwarmRunFinished = "swarm.run.finished"
)

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// RunLifecycle is the payload of the swarm run events.
type RunLifecycle struct {
	RunID     string `json:"run_id"`
	EventType string `json:"event_type"`
	Status    string `json:"status"`
}
