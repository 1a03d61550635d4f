package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"restaurant-pos/backend/internal/telemetry/domain"
)

type mockWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewKafkaProducer_Disabled(t *testing.T) {
	for _, tc := range []struct {
		brokers []string
		topic   string
	}{
		{nil, "pos-telemetry"},
		{[]string{"localhost:9092"}, ""},
	} {
		p, err := NewKafkaProducer(tc.brokers, tc.topic)
		if err != nil || p != nil {
			t.Errorf("NewKafkaProducer(%v, %q) = %v, %v; want nil, nil", tc.brokers, tc.topic, p, err)
		}
	}
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &domain.Record{}); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}

func TestKafkaProducer_Emit(t *testing.T) {
	w := &mockWriter{}
	p := &KafkaProducer{writer: w, topic: "pos-telemetry"}
	rec := &domain.Record{
		Kind:      domain.KindEvent,
		Name:      "order_sent",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Payload:   json.RawMessage(`{"orderId":"o1"}`),
	}
	if err := p.Emit(context.Background(), rec); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "event" {
		t.Errorf("key = %q, want %q", w.msgs[0].Key, "event")
	}
	var got domain.Record
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "order_sent" || string(got.Payload) != `{"orderId":"o1"}` {
		t.Errorf("record = %+v", got)
	}
	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: err=%v closed=%v", err, w.closed)
	}
}

func TestKafkaProducer_EmitError(t *testing.T) {
	p := &KafkaProducer{writer: &mockWriter{err: errors.New("broker down")}, topic: "pos-telemetry"}
	if err := p.Emit(context.Background(), &domain.Record{Kind: domain.KindError}); err == nil {
		t.Fatal("Emit should return the writer error")
	}
}
