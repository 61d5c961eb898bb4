// Package outbox persists and delivers domain events to Kafka.
package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/carbon/internal/events"
)

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

type schemaRegistrar interface {
	EnsureSchema(context.Context, string, string) (int, error)
}

// Source supplies pending outbox events. Both store implementations satisfy
// it: the Postgres store over its outbox table, the memory store over its
// in-process queue.
type Source interface {
	FetchPending(ctx context.Context, limit int) ([]Message, error)
	MarkPublished(ctx context.Context, ids []int64) error
}

// Message represents a pending outbox event.
type Message struct {
	EventID       int64
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	SchemaSubject string
	PartitionKey  string
	Payload       json.RawMessage
}

// Dispatcher drains the outbox and delivers events to Kafka using Schema
// Registry metadata. Undelivered batches stay pending and are retried on the
// next poll.
type Dispatcher struct {
	source           Source
	producer         messageWriter
	registry         schemaRegistrar
	pollInterval     time.Duration
	batchSize        int
	schemaIDs        map[string]int // subject -> registered schema ID
	shutdownComplete chan struct{}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(source Source, producer messageWriter, registry schemaRegistrar, pollInterval time.Duration, batchSize int) *Dispatcher {
	return &Dispatcher{
		source:           source,
		producer:         producer,
		registry:         registry,
		pollInterval:     pollInterval,
		batchSize:        batchSize,
		schemaIDs:        make(map[string]int),
		shutdownComplete: make(chan struct{}),
	}
}

// Start launches the polling loop. It should be called in a goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer func() {
		ticker.Stop()
		close(d.shutdownComplete)
	}()

	for {
		if err := d.processBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("outbox dispatcher error: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait waits until the dispatcher stops.
func (d *Dispatcher) Wait() {
	<-d.shutdownComplete
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	start := time.Now()

	messages, err := d.source.FetchPending(ctx, d.batchSize)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	defer batchDuration.Observe(time.Since(start).Seconds())

	if err := d.deliver(ctx, messages); err != nil {
		failedCounter.Add(float64(len(messages)))
		return fmt.Errorf("outbox delivery: %w", err)
	}

	deliveredCounter.Add(float64(len(messages)))

	ids := make([]int64, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.EventID)
	}
	return d.source.MarkPublished(ctx, ids)
}

func (d *Dispatcher) deliver(ctx context.Context, messages []Message) error {
	batches := make(map[string][]kafka.Message)

	for _, msg := range messages {
		schema, ok := schemaFor(msg.EventType)
		if !ok {
			return fmt.Errorf("no schema registered for event_type=%s", msg.EventType)
		}

		schemaID, cached := d.schemaIDs[msg.SchemaSubject]
		if !cached {
			id, err := d.registry.EnsureSchema(ctx, msg.SchemaSubject, schema)
			if err != nil {
				return err
			}
			d.schemaIDs[msg.SchemaSubject] = id
			schemaID = id
		}

		record := kafka.Message{
			Key:   []byte(msg.PartitionKey),
			Value: encodeWireFormat(schemaID, msg.Payload),
			Time:  time.Now().UTC(),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(msg.EventType)},
				{Key: "schema_subject", Value: []byte(msg.SchemaSubject)},
			},
		}
		batches[msg.Topic] = append(batches[msg.Topic], record)
	}

	for topic, batch := range batches {
		if err := d.producer.WriteMessages(ctx, topic, batch...); err != nil {
			return err
		}
	}

	return nil
}

// encodeWireFormat applies Confluent framing for Schema Registry aware payloads.
func encodeWireFormat(schemaID int, payload []byte) []byte {
	frame := make([]byte, 5+len(payload))
	frame[0] = 0
	binary.BigEndian.PutUint32(frame[1:5], uint32(schemaID))
	copy(frame[5:], payload)
	return frame
}

// schemaFor maps an event type to its schema definition. The stream carries
// a single event type today.
func schemaFor(eventType string) (string, bool) {
	switch eventType {
	case events.TypeEmissionRecorded:
		return emissionRecordedSchema, true
	}
	return "", false
}
