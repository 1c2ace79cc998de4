package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeStore struct {
	pending   []Record
	published []int64
}

func (s *fakeStore) PublishPending(ctx context.Context, limit int, publish func(ctx context.Context, records []Record) error) (int, error) {
	batch := s.pending
	if len(batch) > limit {
		batch = batch[:limit]
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := publish(ctx, batch); err != nil {
		return 0, err
	}
	for _, r := range batch {
		s.published = append(s.published, r.ID)
	}
	s.pending = s.pending[len(batch):]
	return len(batch), nil
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestRelayOncePublishesBatch(t *testing.T) {
	apptID := uuid.New()
	store := &fakeStore{pending: []Record{
		{ID: 1, EventType: "APPOINTMENT_CREATED", AppointmentID: &apptID, Payload: []byte(`{"a":1}`), CreatedAt: time.Now()},
		{ID: 2, EventType: "APPOINTMENT_CONFIRMED", AppointmentID: &apptID, Payload: []byte(`{"a":2}`)},
		{ID: 3, EventType: "APPOINTMENT_CANCELLED", Payload: []byte(`{}`)},
	}}
	writer := &fakeWriter{}
	relay := NewRelay(store, writer, RelayConfig{TopicPrefix: "gym.", BatchSize: 2}, zap.NewNop())

	n, err := relay.RelayOnce(context.Background())
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if n != 2 || len(writer.msgs) != 2 {
		t.Fatalf("expected a batch of 2, got n=%d msgs=%d", n, len(writer.msgs))
	}

	first := writer.msgs[0]
	if first.Topic != "gym.appointment.created" {
		t.Fatalf("unexpected topic %q", first.Topic)
	}
	if string(first.Key) != apptID.String() {
		t.Fatalf("expected appointment id as key, got %q", first.Key)
	}
	if header(first, "event_id") != "1" || header(first, "event_type") != "APPOINTMENT_CREATED" {
		t.Fatalf("unexpected headers %+v", first.Headers)
	}

	if _, err := relay.RelayOnce(context.Background()); err != nil {
		t.Fatalf("relay: %v", err)
	}
	last := writer.msgs[2]
	if string(last.Key) != "3" {
		t.Fatalf("events without appointment fall back to the event id key, got %q", last.Key)
	}
	if len(store.published) != 3 {
		t.Fatalf("expected all events marked published, got %v", store.published)
	}
}

func TestRelayOnceKeepsEventsWhenKafkaFails(t *testing.T) {
	store := &fakeStore{pending: []Record{{ID: 7, EventType: "APPOINTMENT_CREATED"}}}
	writer := &fakeWriter{err: errors.New("broker down")}
	relay := NewRelay(store, writer, RelayConfig{}, zap.NewNop())

	if _, err := relay.RelayOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(store.pending) != 1 || len(store.published) != 0 {
		t.Fatalf("failed batch must stay pending")
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092,")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
	if SplitBrokers("") != nil {
		t.Fatalf("empty input should yield no brokers")
	}
}
