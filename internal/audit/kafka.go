package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of *kgo.Client used by KafkaStore.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaStore publishes each event as a JSON record keyed by student ID, so
// all events of one student land on the same partition in order.
type KafkaStore struct {
	producer Producer
	topic    string
}

func NewKafkaStore(producer Producer, topic string) *KafkaStore {
	return &KafkaStore{producer: producer, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	rec, err := EncodeRecord(s.topic, event)
	if err != nil {
		return err
	}
	if err := s.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// EncodeRecord builds the Kafka record for an event.
func EncodeRecord(topic string, event Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}
	rec := &kgo.Record{
		Topic: topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if event.StudentID != "" {
		rec.Key = []byte(event.StudentID)
	}
	return rec, nil
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(rec *kgo.Record) (Event, error) {
	var e Event
	if err := json.Unmarshal(rec.Value, &e); err != nil {
		return Event{}, fmt.Errorf("decode audit event: %w", err)
	}
	return e, nil
}
