// Package tracker follows a speaker through a script.
//
// A Tracker owns the token sequence, the current Position and the matcher
// state of one tracking session. It runs a supervised recognition session,
// aligns every transcript it receives to the script and notifies its
// Subscriber of position changes, errors and the end of the session.
package tracker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"teleprompter-tracker/internal/align"
	"teleprompter-tracker/internal/observability/logging"
	"teleprompter-tracker/internal/observability/metrics"
	"teleprompter-tracker/internal/script"
	"teleprompter-tracker/internal/service/stt"
	"teleprompter-tracker/internal/service/supervisor"
)

// Config groups the matcher and supervisor settings of a tracker.
type Config struct {
	ID         string // Tracker ID, generated when empty
	Matcher    align.Config
	Supervisor supervisor.Config
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		Matcher:    align.DefaultConfig(),
		Supervisor: supervisor.DefaultConfig(),
	}
}

// Tracker aligns live speech to a script.
type Tracker struct {
	id         string
	logger     zerolog.Logger
	subscriber Subscriber
	supervisor *supervisor.Supervisor

	mu       sync.Mutex
	tokens   []script.Token
	position Position
	matcher  *align.Matcher
	active   bool // false once Stop was called, results are then dropped
}

// New creates a tracker for tokens on the wall clock.
func New(tokens []script.Token, recognizer stt.Recognizer, subscriber Subscriber, cfg Config) *Tracker {
	return NewWithClock(tokens, recognizer, subscriber, cfg, supervisor.RealClock{})
}

// NewWithClock creates a tracker whose restart debouncing runs on clock.
func NewWithClock(tokens []script.Token, recognizer stt.Recognizer, subscriber Subscriber, cfg Config, clock supervisor.Clock) *Tracker {
	if subscriber == nil {
		subscriber = Funcs{}
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	t := &Tracker{
		id:         id,
		logger:     logging.WithTracker("tracker", id),
		subscriber: subscriber,
		tokens:     tokens,
		position:   UnsetPosition(),
		matcher:    align.NewMatcher(cfg.Matcher),
	}
	t.supervisor = supervisor.NewWithClock(recognizer, sessionObserver{t}, cfg.Supervisor, clock)
	t.supervisor.SetLogger(logging.WithTracker("supervisor", id))
	return t
}

// ID returns the tracker's unique identifier.
func (t *Tracker) ID() string {
	return t.id
}

// Supervisor returns the recognition supervisor.
func (t *Tracker) Supervisor() *supervisor.Supervisor {
	return t.supervisor
}

// Tokens returns the current token sequence.
func (t *Tracker) Tokens() []script.Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tokens
}

// Position returns the current position.
func (t *Tracker) Position() Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

// IsRunning returns true while a recognition run is active.
func (t *Tracker) IsRunning() bool {
	return t.supervisor.Running()
}

// Start begins tracking. It is a no-op while already running.
// Start failures are also reported to the subscriber.
func (t *Tracker) Start(ctx context.Context) error {
	if t.supervisor.Running() {
		return nil
	}

	t.mu.Lock()
	t.active = true
	t.mu.Unlock()

	if err := t.supervisor.Start(ctx); err != nil {
		t.mu.Lock()
		t.active = false
		t.mu.Unlock()

		t.logger.Error().Err(err).Msg("Failed to start tracking")
		t.subscriber.OnError(err)
		return err
	}

	t.logger.Info().Int("tokens", len(t.Tokens())).Msg("Tracking started")
	return nil
}

// Stop ends tracking and clears the matcher state. The position is kept so
// the last location stays visible.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	t.active = false
	t.matcher.Reset()
	t.mu.Unlock()

	t.logger.Info().Msg("Tracking stopped")
	return t.supervisor.Stop()
}

// Reset unsets the position, clears the matcher state and derives the
// initial bounds from the start of the script.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.matcher.Reset()
	t.position = UnsetPosition()
	if bounds, ok := align.Bounds(t.matcher.TextRegion(t.tokens, 0)); ok {
		t.position.Bounds = bounds
	}
	pos := t.position
	t.mu.Unlock()

	t.notifyPosition(pos)
}

// UpdateTokens swaps in a new token sequence and clamps the position to it.
func (t *Tracker) UpdateTokens(tokens []script.Token) {
	t.mu.Lock()
	t.tokens = tokens
	old := t.position
	t.position = t.position.clamp(len(tokens) - 1)
	pos := t.position
	t.mu.Unlock()

	t.logger.Debug().Int("tokens", len(tokens)).Msg("Script tokens updated")
	if pos != old {
		t.notifyPosition(pos)
	}
}

// UpdatePosition merges u into the position and notifies the subscriber.
func (t *Tracker) UpdatePosition(u PositionUpdate) Position {
	t.mu.Lock()
	t.position = u.apply(t.position)
	pos := t.position
	t.mu.Unlock()

	t.notifyPosition(pos)
	return pos
}

// JumpTo moves the reader to the token at index, as when skipping a
// sentence by hand. The matcher state is cleared so stale transcript words
// do not pull the position back. It returns false for an empty script.
func (t *Tracker) JumpTo(index int) bool {
	t.mu.Lock()
	if len(t.tokens) == 0 {
		t.mu.Unlock()
		return false
	}
	index = min(max(index, 0), len(t.tokens)-1)
	t.matcher.Reset()
	t.position = Position{Start: index, Search: index, End: index, Bounds: t.position.Bounds}
	if bounds, ok := align.Bounds(t.matcher.TextRegion(t.tokens, index)); ok {
		t.position.Bounds = bounds
	}
	pos := t.position
	t.mu.Unlock()

	t.logger.Debug().Int("index", index).Msg("Position moved by hand")
	t.notifyPosition(pos)
	return true
}

func (t *Tracker) notifyPosition(pos Position) {
	metrics.DefaultMetrics.RecordPositionUpdate()
	t.subscriber.OnPositionUpdate(pos)
}

func (t *Tracker) handleStart() {
	t.mu.Lock()
	var (
		pos     Position
		changed bool
	)
	if t.position.Bounds < 0 {
		if bounds, ok := align.Bounds(t.matcher.TextRegion(t.tokens, 0)); ok {
			t.position.Bounds = bounds
			pos, changed = t.position, true
		}
	}
	t.mu.Unlock()

	if changed {
		t.notifyPosition(pos)
	}
	t.subscriber.OnStart()
}

// handleTranscript aligns one transcript to the script. A transcript that
// cannot be placed leaves the position untouched.
func (t *Tracker) handleTranscript(text string, isFinal bool) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}

	current := t.position
	region := t.matcher.TextRegion(t.tokens, current.Search)
	bounds, hasBounds := align.Bounds(region)
	m := t.matcher.Match(script.Words(text), region, current.Search, isFinal)

	if !m.Found() {
		// Start, search and end hold; bounds follow the region.
		boundsChanged := hasBounds && bounds != current.Bounds
		if boundsChanged {
			t.position.Bounds = bounds
		}
		pos := t.position
		t.mu.Unlock()

		metrics.DefaultMetrics.RecordNoMatch(m.Outcome.String())
		t.logger.Debug().
			Str("outcome", m.Outcome.String()).
			Bool("isFinal", isFinal).
			Str("transcript", text).
			Msg("Position held")
		if boundsChanged {
			t.notifyPosition(pos)
		}
		return
	}

	next := current
	if isFinal {
		end := floor(m.End, current.Start)
		next.Start, next.Search, next.End = end, end, end
	} else {
		next.Search = floor(m.Start, current.Start)
		next.End = floor(m.End, current.Start)
	}
	if hasBounds {
		next.Bounds = bounds
	}
	t.position = next
	t.mu.Unlock()

	metrics.DefaultMetrics.RecordMatch(m.Candidate.Tier, m.Candidate.Score)
	t.logger.Debug().
		Bool("isFinal", isFinal).
		Int("first", m.Candidate.First).
		Int("last", m.Candidate.Last).
		Float64("score", m.Candidate.Score).
		Int("tier", m.Candidate.Tier).
		Int("start", next.Start).
		Int("end", next.End).
		Msg("Transcript aligned")
	t.notifyPosition(next)
}

func (t *Tracker) handleError(err error) {
	t.subscriber.OnError(err)
}

func (t *Tracker) handleEnd() {
	t.mu.Lock()
	t.matcher.Reset()
	t.mu.Unlock()

	t.logger.Info().Msg("Recognition ended")
	t.subscriber.OnEnd()
}

// floor keeps v at or after the committed start.
func floor(v, start int) int {
	if start != Unset && v < start {
		return start
	}
	return v
}

// sessionObserver connects the supervisor to the tracker without exposing
// the observer methods on Tracker.
type sessionObserver struct {
	t *Tracker
}

func (o sessionObserver) OnSessionStart() { o.t.handleStart() }

func (o sessionObserver) OnTranscript(text string, isFinal bool) {
	o.t.handleTranscript(text, isFinal)
}

func (o sessionObserver) OnSessionError(err error) { o.t.handleError(err) }

func (o sessionObserver) OnSessionEnd() { o.t.handleEnd() }
