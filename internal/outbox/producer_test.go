package outbox

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestProducerReusesWriterPerTopic(t *testing.T) {
	producer := NewProducer([]string{"kafka:9092"})
	t.Cleanup(func() { _ = producer.Close() })

	first := producer.writerFor("carbon_emission_events")
	second := producer.writerFor("carbon_emission_events")
	require.Same(t, first, second)

	other := producer.writerFor("other_topic")
	require.NotSame(t, first, other)
}

func TestProducerWriterConfiguration(t *testing.T) {
	producer := NewProducer([]string{"kafka:9092"})
	t.Cleanup(func() { _ = producer.Close() })

	writer := producer.writerFor("carbon_emission_events")
	require.Equal(t, "carbon_emission_events", writer.Topic)
	require.Equal(t, kafka.RequireAll, writer.RequiredAcks)
	require.Equal(t, kafka.Snappy, writer.Compression)
	require.IsType(t, &kafka.Hash{}, writer.Balancer)
}

func TestProducerCloseIsIdempotent(t *testing.T) {
	producer := NewProducer([]string{"kafka:9092"})
	_ = producer.writerFor("carbon_emission_events")

	require.NoError(t, producer.Close())
	require.NoError(t, producer.Close())
}
