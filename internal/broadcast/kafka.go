package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes every snapshot to a Kafka topic as a broadcast subscriber.
type KafkaSink struct {
	topic  string
	key    []byte
	writer MessageWriter
}

// NewKafkaSink creates a sink writing to topic. key labels messages with the snapshot kind.
func NewKafkaSink(brokers []string, topic, key string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaSinkWithWriter(writer, topic, key)
}

// NewKafkaSinkWithWriter wraps an existing writer.
func NewKafkaSinkWithWriter(w MessageWriter, topic, key string) *KafkaSink {
	return &KafkaSink{topic: topic, key: []byte(key), writer: w}
}

func (k *KafkaSink) ID() string { return "kafka:" + k.topic }

func (k *KafkaSink) Send(ctx context.Context, payload []byte) error {
	msg := kafka.Message{
		Key:   k.key,
		Value: payload,
		Time:  time.Now(),
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot to kafka topic %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
