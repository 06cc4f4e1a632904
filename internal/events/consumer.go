package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"teleprompter-tracker/internal/models"
	"teleprompter-tracker/internal/schema"
)

// ConsumerConfig configures reading tracker events back from Kafka.
type ConsumerConfig struct {
	Brokers []string
	Topics  []string
	Since   time.Duration // How far back to start reading, 0 = only new events
}

// Event is one decoded tracker event. Exactly one of Position and Session is set.
type Event struct {
	Topic    string
	Key      string
	Position *models.PositionUpdated
	Session  *models.SessionEvent
}

// Consumer reads position and session events, one reader per topic.
type Consumer struct {
	cfg       ConsumerConfig
	validator *schema.Validator
}

// NewConsumer creates a consumer for cfg.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	return &Consumer{cfg: cfg, validator: schema.New()}
}

// Run reads every topic until ctx is cancelled. handle is never called
// concurrently. Undecodable or invalid messages are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handle func(Event)) error {
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range c.cfg.Topics {
		topic := topic
		g.Go(func() error {
			return c.consume(ctx, topic, func(ev Event) {
				mu.Lock()
				defer mu.Unlock()
				handle(ev)
			})
		})
	}
	return g.Wait()
}

func (c *Consumer) consume(ctx context.Context, topic string, handle func(Event)) error {
	// Use partition reader without consumer group
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   c.cfg.Brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if c.cfg.Since > 0 {
		if err := reader.SetOffsetAt(ctx, time.Now().Add(-c.cfg.Since)); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("Failed to seek, reading new events only")
		}
	} else if err := reader.SetOffset(kafka.LastOffset); err != nil {
		return err
	}

	log.Info().Str("topic", topic).Dur("since", c.cfg.Since).Msg("Consuming tracker events")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Str("topic", topic).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		ev, err := c.decode(msg)
		if err != nil {
			log.Warn().Err(err).Str("topic", topic).Int64("offset", msg.Offset).Msg("Skipping message")
			continue
		}
		handle(ev)
	}
}

// decode turns a message written by Publisher back into an Event, using the
// eventType header to pick the payload type.
func (c *Consumer) decode(msg kafka.Message) (Event, error) {
	ev := Event{Topic: msg.Topic, Key: string(msg.Key)}

	var eventType string
	for _, h := range msg.Headers {
		if h.Key == "eventType" {
			eventType = string(h.Value)
		}
	}

	switch eventType {
	case "position":
		var p models.PositionUpdated
		if err := json.Unmarshal(msg.Value, &p); err != nil {
			return Event{}, err
		}
		if err := c.validator.Validate(p); err != nil {
			return Event{}, err
		}
		ev.Position = &p
	case "session":
		var s models.SessionEvent
		if err := json.Unmarshal(msg.Value, &s); err != nil {
			return Event{}, err
		}
		if err := c.validator.Validate(s); err != nil {
			return Event{}, err
		}
		ev.Session = &s
	default:
		return Event{}, fmt.Errorf("unknown event type header %q", eventType)
	}
	return ev, nil
}
