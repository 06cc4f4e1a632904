package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"teleprompter-tracker/internal/models"
	"teleprompter-tracker/internal/observability/logging"
	"teleprompter-tracker/internal/schema"
	"teleprompter-tracker/internal/service/supervisor"
	"teleprompter-tracker/internal/service/tracker"
)

// ErrQueueFull is recorded when an event is dropped because the publisher
// cannot keep up.
var ErrQueueFull = errors.New("event queue full")

// drainTimeout bounds publishing of queued events after Run is cancelled.
const drainTimeout = 5 * time.Second

type outbound struct {
	session bool
	event   any
}

// Notifier turns tracker notifications into events and publishes them from
// its own goroutine, so a slow broker never delays alignment.
type Notifier struct {
	publisher *Publisher
	validator *schema.Validator
	trackerID string
	wordAt    func(index int) string
	queue     chan outbound
	logger    zerolog.Logger
	now       func() time.Time
}

// NewNotifier creates a notifier for one tracker. wordAt resolves the script
// word at a token index and may be nil. buffer is the queue capacity.
func NewNotifier(p *Publisher, trackerID string, wordAt func(index int) string, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 256
	}
	return &Notifier{
		publisher: p,
		validator: schema.New(),
		trackerID: trackerID,
		wordAt:    wordAt,
		queue:     make(chan outbound, buffer),
		logger:    logging.WithTracker("notifier", trackerID),
		now:       time.Now,
	}
}

var _ tracker.Subscriber = (*Notifier)(nil)

// OnStart queues a session.started event.
func (n *Notifier) OnStart() {
	n.enqueue(true, models.SessionEvent{
		EventType: models.EventSessionStarted,
		TrackerID: n.trackerID,
		Timestamp: n.now().UnixMilli(),
	})
}

// OnPositionUpdate queues a position.updated event.
func (n *Notifier) OnPositionUpdate(p tracker.Position) {
	event := models.PositionUpdated{
		EventType: models.EventPositionUpdated,
		TrackerID: n.trackerID,
		Timestamp: n.now().UnixMilli(),
		Start:     p.Start,
		Search:    p.Search,
		End:       p.End,
		Bounds:    p.Bounds,
	}
	if n.wordAt != nil && p.End >= 0 {
		event.Word = n.wordAt(p.End)
	}
	n.enqueue(false, event)
}

// OnError queues a session.error event.
func (n *Notifier) OnError(err error) {
	n.enqueue(true, models.SessionEvent{
		EventType: models.EventSessionError,
		TrackerID: n.trackerID,
		Timestamp: n.now().UnixMilli(),
		Error:     err.Error(),
		Fatal:     supervisor.IsFatal(err),
	})
}

// OnEnd queues a session.ended event.
func (n *Notifier) OnEnd() {
	n.enqueue(true, models.SessionEvent{
		EventType: models.EventSessionEnded,
		TrackerID: n.trackerID,
		Timestamp: n.now().UnixMilli(),
	})
}

func (n *Notifier) enqueue(session bool, event any) {
	if err := n.validator.Validate(event); err != nil {
		n.logger.Error().Err(err).Msg("Dropping invalid event")
		return
	}

	select {
	case n.queue <- outbound{session: session, event: event}:
	default:
		n.logger.Warn().Msg("Event queue full, dropping event")
		topic, eventType := n.publisher.topicPosition, "position"
		if session {
			topic, eventType = n.publisher.topicSession, "session"
		}
		n.publisher.metrics.RecordKafkaPublish(topic, eventType, ErrQueueFull, 0)
	}
}

// Run publishes queued events until ctx is cancelled, then publishes what is
// still queued within a short grace period.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case out := <-n.queue:
			n.publish(ctx, out)
		case <-ctx.Done():
			n.drain()
			return nil
		}
	}
}

func (n *Notifier) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case out := <-n.queue:
			n.publish(ctx, out)
		default:
			return
		}
	}
}

func (n *Notifier) publish(ctx context.Context, out outbound) {
	var err error
	if out.session {
		err = n.publisher.PublishSession(ctx, n.trackerID, out.event)
	} else {
		err = n.publisher.PublishPosition(ctx, n.trackerID, out.event)
	}
	if err != nil {
		n.logger.Warn().Err(err).Msg("Failed to publish event")
	}
}
