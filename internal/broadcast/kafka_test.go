package broadcast

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink_Send(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSinkWithWriter(w, "market-snapshots", "indices")

	assert.Equal(t, "kafka:market-snapshots", sink.ID())
	require.NoError(t, sink.Send(context.Background(), []byte(`{"USA":[]}`)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("indices"), w.msgs[0].Key)
	assert.JSONEq(t, `{"USA":[]}`, string(w.msgs[0].Value))

	require.NoError(t, sink.Close())
	assert.True(t, w.closed)
}

func TestKafkaSink_FailureDropsSink(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	sink := NewKafkaSinkWithWriter(w, "market-snapshots", "indices")
	err := sink.Send(context.Background(), []byte(`{}`))
	assert.ErrorContains(t, err, "market-snapshots")

	source, _ := countingSource(0)
	b := New(source)
	b.Subscribe(sink)
	_, delivered, dropped := b.deliver(context.Background(), []byte(`{}`))
	assert.Equal(t, 0, delivered)
	assert.Equal(t, 1, dropped)
	assert.Zero(t, b.Subscribers())
}

func TestNewKafkaSink(t *testing.T) {
	sink := NewKafkaSink([]string{"localhost:9092"}, "snapshots", "sectors")
	assert.Equal(t, "kafka:snapshots", sink.ID())
	w, ok := sink.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "snapshots", w.Topic)
}
