package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/segmentio/kafka-go"

	"teleprompter-tracker/internal/models"
	"teleprompter-tracker/internal/schema"
)

func TestConsumer_DecodePublished(t *testing.T) {
	p, pos, sess := newFakePublisher()
	position := models.PositionUpdated{
		EventType: models.EventPositionUpdated,
		TrackerID: "tracker-1",
		Timestamp: 42,
		Start:     3,
		Search:    3,
		End:       5,
		Bounds:    11,
		Word:      "five",
	}
	session := models.SessionEvent{
		EventType: models.EventSessionError,
		TrackerID: "tracker-1",
		Timestamp: 43,
		Error:     "boom",
		Fatal:     true,
	}
	p.PublishPosition(context.Background(), "tracker-1", position)
	p.PublishSession(context.Background(), "tracker-1", session)

	c := NewConsumer(ConsumerConfig{})

	ev, err := c.decode(pos.written()[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Key != "tracker-1" || ev.Session != nil {
		t.Errorf("unexpected event %+v", ev)
	}
	if diff := cmp.Diff(&position, ev.Position); diff != "" {
		t.Errorf("position mismatch (-want +got):\n%s", diff)
	}

	ev, err = c.decode(sess.written()[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(&session, ev.Session); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}
}

func TestConsumer_DecodeRejects(t *testing.T) {
	header := func(v string) []kafka.Header {
		return []kafka.Header{{Key: "eventType", Value: []byte(v)}}
	}

	tests := []struct {
		name    string
		msg     kafka.Message
		invalid bool
	}{
		{"missing header", kafka.Message{Value: []byte(`{}`)}, false},
		{"bad json", kafka.Message{Headers: header("position"), Value: []byte(`{`)}, false},
		{"invalid position", kafka.Message{Headers: header("position"), Value: []byte(`{"eventType":"position.updated","trackerId":"t","start":5,"search":5,"end":2,"bounds":9}`)}, true},
		{"invalid session", kafka.Message{Headers: header("session"), Value: []byte(`{"eventType":"session.error","trackerId":"t"}`)}, true},
	}

	c := NewConsumer(ConsumerConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.decode(tt.msg)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, schema.ErrInvalidEvent); got != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalidEvent) = %v, want %v (%v)", got, tt.invalid, err)
			}
		})
	}
}
