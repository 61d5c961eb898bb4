package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/events"
	"example.com/carbon/internal/observability"
)

// HistoryHandler rebuilds per-activity history snapshots whenever a new
// emission record event arrives.
type HistoryHandler struct {
	service *domain.Service
}

// NewHistoryHandler constructs a handler backed by the domain service.
func NewHistoryHandler(service *domain.Service) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// Handle refreshes the activity history for the event's user. Unknown event
// types are skipped so new producers can roll out ahead of this consumer.
func (h *HistoryHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeEmissionRecorded {
		return nil
	}

	var payload events.EmissionRecorded
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode emission payload: %w", err)
	}
	if payload.UserID == "" || payload.ActivityType == "" {
		return fmt.Errorf("emission payload missing user_id or activity_type")
	}

	if _, err := h.service.RebuildUserActivityHistory(ctx, payload.UserID, payload.ActivityType); err != nil {
		return fmt.Errorf("rebuild history for user %s: %w", payload.UserID, err)
	}

	observability.RecordHistoryRebuilt(msg.Timestamp)
	return nil
}
