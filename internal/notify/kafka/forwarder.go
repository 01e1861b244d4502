// Package kafka forwards domain events from the in-process bus to a Kafka
// topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/kmmanagement/agenda/internal/eventbus"
	"github.com/kmmanagement/agenda/internal/metrics"
)

const (
	headerEventType = "event_type"
	headerEventID   = "event_id"

	subscriberBuffer = 256
)

// Producer is the part of *kgo.Client the forwarder uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

type Forwarder struct {
	producer Producer
	topic    string
	bus      *eventbus.Bus
	metrics  metrics.AgendaMetrics
}

func NewForwarder(producer Producer, topic string, bus *eventbus.Bus, m metrics.AgendaMetrics) *Forwarder {
	return &Forwarder{producer: producer, topic: topic, bus: bus, metrics: m}
}

// Run forwards events until ctx is done. A failed publish is logged and
// the event dropped.
func (f *Forwarder) Run(ctx context.Context) error {
	id, events := f.bus.Subscribe(subscriberBuffer)
	defer f.bus.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := f.Publish(ctx, ev); err != nil {
				f.metrics.EventForwardFailed()
				slog.ErrorContext(ctx, "failed to forward event", "event_id", ev.ID, "type", ev.Type, "error", err)
				continue
			}
			f.metrics.EventForwarded()
		}
	}
}

func (f *Forwarder) Publish(ctx context.Context, ev eventbus.Event) error {
	record, err := f.record(ev)
	if err != nil {
		return err
	}
	if err := f.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// record keys by resource so events about one task stay ordered within a
// partition.
func (f *Forwarder) record(ev eventbus.Event) (*kgo.Record, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("serialize event: %w", err)
	}
	return &kgo.Record{
		Topic: f.topic,
		Key:   []byte(ev.ResourceID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: headerEventType, Value: []byte(ev.Type)},
			{Key: headerEventID, Value: []byte(ev.ID)},
		},
	}, nil
}
