package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/events"
	"example.com/carbon/internal/store/memory"
)

func TestHistoryHandlerRebuildsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	service := domain.NewService(store)

	_, err := service.RegisterUser(ctx, "user-1", "casey")
	require.NoError(t, err)

	records := []domain.EmissionRecord{
		{ID: "rec-1", ActivityType: "commute", Emissions: 50, RecordedAt: time.Now().UTC()},
		{ID: "rec-2", ActivityType: "flight", Emissions: 800, RecordedAt: time.Now().UTC()},
		{ID: "rec-3", ActivityType: "commute", Emissions: 50, RecordedAt: time.Now().UTC()},
	}
	for _, record := range records {
		_, err := store.AppendEmission(ctx, "user-1", record)
		require.NoError(t, err)
	}

	payload, err := json.Marshal(events.EmissionRecorded{
		RecordID:     "rec-3",
		UserID:       "user-1",
		ActivityType: "commute",
		Emissions:    50,
	})
	require.NoError(t, err)

	handler := NewHistoryHandler(service)
	err = handler.Handle(ctx, Message{
		Topic:     events.TopicEmissions,
		EventType: events.TypeEmissionRecorded,
		UserID:    "user-1",
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	require.NoError(t, err)

	snapshot, err := store.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	require.Equal(t, "commute", snapshot.ActivityType)
	require.Len(t, snapshot.History, 2)
}

func TestHistoryHandlerSkipsUnknownEventTypes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	handler := NewHistoryHandler(domain.NewService(store))

	err := handler.Handle(ctx, Message{
		EventType: "emission.retracted",
		Payload:   json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	snapshot, err := store.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Nil(t, snapshot)
}

func TestHistoryHandlerRejectsMalformedPayload(t *testing.T) {
	handler := NewHistoryHandler(domain.NewService(memory.NewStore()))

	err := handler.Handle(context.Background(), Message{
		EventType: events.TypeEmissionRecorded,
		Payload:   json.RawMessage(`not-json`),
	})
	require.Error(t, err)
}

func TestHistoryHandlerRejectsIncompletePayload(t *testing.T) {
	handler := NewHistoryHandler(domain.NewService(memory.NewStore()))

	err := handler.Handle(context.Background(), Message{
		EventType: events.TypeEmissionRecorded,
		Payload:   json.RawMessage(`{"record_id":"rec-1"}`),
	})
	require.Error(t, err)
}
