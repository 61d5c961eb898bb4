package outbox

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Producer publishes event batches to Kafka, creating one writer per topic on
// first use. Messages hash-partition on their key, so a user's events stay
// ordered within a partition.
type Producer struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewProducer constructs a Producer for the broker list.
func NewProducer(brokers []string) *Producer {
	return &Producer{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

// WriteMessages publishes msgs to topic, requiring acks from all replicas.
func (p *Producer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writerFor(topic).WriteMessages(ctx, msgs...)
}

func (p *Producer) writerFor(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	writer, ok := p.writers[topic]
	if !ok {
		writer = &kafka.Writer{
			Addr:         kafka.TCP(p.brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
		}
		p.writers[topic] = writer
	}
	return writer
}

// Close closes every writer, reporting all close errors together.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, writer := range p.writers {
		errs = append(errs, writer.Close())
	}
	p.writers = make(map[string]*kafka.Writer)
	return errors.Join(errs...)
}
