package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventAgentStatus    = "agent.status"
	EventFactoryMetrics = "factory.metrics"
	EventFactoryReset   = "factory.reset"
)

// AgentStatusEvent is broadcast when an agent's pipeline state changes.
type AgentStatusEvent struct {
	AgentID         string  `json:"agent_id"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	Stage           int     `json:"stage"`
	OverallProgress float64 `json:"overall_progress"`
	Error           string  `json:"error,omitempty"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
