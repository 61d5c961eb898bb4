// Package memory provides a mutex-guarded in-memory Store for local
// development and tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/events"
	"example.com/carbon/internal/outbox"
)

// Store keeps the five record collections in maps keyed the same way the
// persistent variants are, plus an in-process outbox queue.
type Store struct {
	mu         sync.RWMutex
	users      map[string]domain.UserData
	activities map[string]domain.ActivityType
	benchmarks map[string]domain.BenchmarkData
	settings   map[string]domain.UserSettings
	histories  map[string]domain.UserActivityHistory

	nextEventID int64
	pending     []outbox.Message
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]domain.UserData),
		activities: make(map[string]domain.ActivityType),
		benchmarks: make(map[string]domain.BenchmarkData),
		settings:   make(map[string]domain.UserSettings),
		histories:  make(map[string]domain.UserActivityHistory),
	}
}

// GetUser implements domain.Store.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.UserData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	user.EmissionsRecords = cloneRecords(user.EmissionsRecords)
	return &user, nil
}

// PutUser implements domain.Store.
func (s *Store) PutUser(ctx context.Context, user domain.UserData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.EmissionsRecords = cloneRecords(user.EmissionsRecords)
	s.users[user.UserID] = user
	return nil
}

// Users implements domain.Store. Iteration order is unspecified, matching
// the store contract.
func (s *Store) Users(ctx context.Context) ([]domain.UserData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserData, 0, len(s.users))
	for _, user := range s.users {
		user.EmissionsRecords = cloneRecords(user.EmissionsRecords)
		out = append(out, user)
	}
	return out, nil
}

// AppendEmission appends the record and enqueues the matching outbox event
// under a single lock acquisition.
func (s *Store) AppendEmission(ctx context.Context, userID string, record domain.EmissionRecord) (*domain.UserData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	user.EmissionsRecords = append(cloneRecords(user.EmissionsRecords), record)
	s.users[userID] = user

	payload, err := json.Marshal(events.EmissionRecorded{
		RecordID:     record.ID,
		UserID:       userID,
		ActivityType: record.ActivityType,
		Description:  record.Description,
		Emissions:    record.Emissions,
		Date:         record.Date,
		RecordedAt:   record.RecordedAt,
	})
	if err != nil {
		return nil, err
	}

	s.nextEventID++
	s.pending = append(s.pending, outbox.Message{
		EventID:       s.nextEventID,
		AggregateType: "user",
		AggregateID:   userID,
		EventType:     events.TypeEmissionRecorded,
		Topic:         events.TopicEmissions,
		SchemaSubject: events.SubjectEmissionRecorded,
		PartitionKey:  userID,
		Payload:       payload,
	})

	out := user
	out.EmissionsRecords = cloneRecords(user.EmissionsRecords)
	return &out, nil
}

// PutActivityType implements domain.Store.
func (s *Store) PutActivityType(ctx context.Context, activity domain.ActivityType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities[activity.ID] = activity
	return nil
}

// ActivityTypes implements domain.Store.
func (s *Store) ActivityTypes(ctx context.Context) ([]domain.ActivityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ActivityType, 0, len(s.activities))
	for _, activity := range s.activities {
		out = append(out, activity)
	}
	return out, nil
}

// GetBenchmark implements domain.Store.
func (s *Store) GetBenchmark(ctx context.Context, userID string) (*domain.BenchmarkData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	benchmark, ok := s.benchmarks[userID]
	if !ok {
		return nil, nil
	}
	return &benchmark, nil
}

// PutBenchmark implements domain.Store.
func (s *Store) PutBenchmark(ctx context.Context, benchmark domain.BenchmarkData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.benchmarks[benchmark.UserID] = benchmark
	return nil
}

// Benchmarks implements domain.Store.
func (s *Store) Benchmarks(ctx context.Context) ([]domain.BenchmarkData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BenchmarkData, 0, len(s.benchmarks))
	for _, benchmark := range s.benchmarks {
		out = append(out, benchmark)
	}
	return out, nil
}

// GetSettings implements domain.Store.
func (s *Store) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.settings[userID]
	if !ok {
		return nil, nil
	}
	return &settings, nil
}

// PutSettings implements domain.Store.
func (s *Store) PutSettings(ctx context.Context, settings domain.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[settings.UserID] = settings
	return nil
}

// GetHistory implements domain.Store.
func (s *Store) GetHistory(ctx context.Context, userID string) (*domain.UserActivityHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.histories[userID]
	if !ok {
		return nil, nil
	}
	history.History = cloneRecords(history.History)
	return &history, nil
}

// PutHistory implements domain.Store.
func (s *Store) PutHistory(ctx context.Context, history domain.UserActivityHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history.History = cloneRecords(history.History)
	s.histories[history.UserID] = history
	return nil
}

// FetchPending implements outbox.Source.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.pending) {
		limit = len(s.pending)
	}
	out := make([]outbox.Message, limit)
	copy(out, s.pending[:limit])
	return out, nil
}

// MarkPublished implements outbox.Source.
func (s *Store) MarkPublished(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	published := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		published[id] = struct{}{}
	}

	remaining := s.pending[:0]
	for _, msg := range s.pending {
		if _, ok := published[msg.EventID]; !ok {
			remaining = append(remaining, msg)
		}
	}
	s.pending = remaining
	return nil
}

func cloneRecords(records []domain.EmissionRecord) []domain.EmissionRecord {
	if records == nil {
		return nil
	}
	out := make([]domain.EmissionRecord, len(records))
	copy(out, records)
	return out
}
