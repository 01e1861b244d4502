package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/kmmanagement/agenda/internal/eventbus"
	"github.com/kmmanagement/agenda/internal/metrics"
)

type mockProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (m *mockProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results kgo.ProduceResults
	for _, r := range rs {
		if m.err == nil {
			m.records = append(m.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: m.err})
	}
	return results
}

func (m *mockProducer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func TestForwarder_Publish(t *testing.T) {
	p := &mockProducer{}
	f := NewForwarder(p, "agenda.events", eventbus.New(), metrics.Nop{})

	ev := eventbus.Event{ID: "e1", Type: eventbus.TaskCreated, ResourceID: "t1", CreatedAt: time.Now()}
	require.NoError(t, f.Publish(context.Background(), ev))

	require.Len(t, p.records, 1)
	r := p.records[0]
	assert.Equal(t, "agenda.events", r.Topic)
	assert.Equal(t, []byte("t1"), r.Key)
	assert.Equal(t, []kgo.RecordHeader{
		{Key: "event_type", Value: []byte("task.created")},
		{Key: "event_id", Value: []byte("e1")},
	}, r.Headers)

	var decoded eventbus.Event
	require.NoError(t, json.Unmarshal(r.Value, &decoded))
	assert.Equal(t, ev.ResourceID, decoded.ResourceID)
	assert.Equal(t, ev.Type, decoded.Type)
}

func TestForwarder_PublishError(t *testing.T) {
	boom := errors.New("broker down")
	f := NewForwarder(&mockProducer{err: boom}, "agenda.events", eventbus.New(), metrics.Nop{})

	err := f.Publish(context.Background(), eventbus.Event{ID: "e1"})
	assert.ErrorIs(t, err, boom)
}

func TestForwarder_RunForwardsBusEvents(t *testing.T) {
	p := &mockProducer{}
	bus := eventbus.New()
	f := NewForwarder(p, "agenda.events", bus, metrics.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	// Run subscribes asynchronously; keep publishing until it is listening.
	require.Eventually(t, func() bool {
		bus.PublishNew(eventbus.ClientCreated, "c1", nil)
		return p.count() > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
