// Package consumer drains the emission event stream and keeps derived
// per-user state current.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader is the slice of kafka.Reader the processor depends on.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler consumes decoded events.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is one decoded event from the emission stream. The partition key
// carries the user ID, so per-user ordering is the stream's ordering.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	EventType string
	UserID    string
	Payload   json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor fetches, decodes, handles, and commits stream records. Offsets
// advance only after the handler succeeds, so a crashed consumer replays
// rather than drops.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *log.Logger
}

// NewProcessor constructs a Processor over the reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		logger:  log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes records until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Printf("fetch: %v", err)
			continue
		}

		p.process(ctx, msg)
	}
}

func (p *Processor) process(ctx context.Context, msg kafka.Message) {
	event, err := decode(msg)
	if err != nil {
		recordDecodeError(msg.Topic)
		p.logger.Printf("drop undecodable record (topic=%s offset=%d): %v", msg.Topic, msg.Offset, err)
		// A malformed record never becomes valid; commit past it.
		p.commit(ctx, msg)
		return
	}

	if err := p.handler.Handle(ctx, event); err != nil {
		recordHandlerError(event)
		p.logger.Printf("handle %s (user=%s): %v", event.EventType, event.UserID, err)
		return
	}

	if p.commit(ctx, msg) {
		recordProcessed(event)
	}
}

func (p *Processor) commit(ctx context.Context, msg kafka.Message) bool {
	if err := p.reader.CommitMessages(ctx, msg); err != nil {
		p.logger.Printf("commit (topic=%s offset=%d): %v", msg.Topic, msg.Offset, err)
		return false
	}
	return true
}

// decode validates the 5-byte Schema Registry frame, strips it, and lifts
// routing metadata out of the record: the event type from its header, the
// user ID from the partition key.
func decode(msg kafka.Message) (Message, error) {
	if len(msg.Value) < 5 {
		return Message{}, fmt.Errorf("value too short for schema frame: %d bytes", len(msg.Value))
	}
	if msg.Value[0] != 0 {
		return Message{}, fmt.Errorf("unexpected frame magic byte %#x", msg.Value[0])
	}

	eventType := headerValue(msg, "event_type")
	if eventType == "" {
		return Message{}, errors.New("missing event_type header")
	}

	return Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		EventType: eventType,
		UserID:    string(msg.Key),
		Payload:   json.RawMessage(append([]byte(nil), msg.Value[5:]...)),
	}, nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, header := range msg.Headers {
		if header.Key == key {
			return string(header.Value)
		}
	}
	return ""
}
