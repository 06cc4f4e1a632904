// Package mock provides a deterministic speech recognizer for tests and demos.
//
// Events can be emitted by hand (EmitStart, EmitResult, EmitError, EmitEnd)
// or played back from scripted utterances, each a series of progressive
// interim transcripts followed by exactly one final transcript. Playback ends
// every engine session after a fixed number of utterances to mimic platform
// recognizers that stop on their own.
package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"teleprompter-tracker/internal/service/stt"
)

// ErrNotStarted is returned by Emit helpers when no session was started.
var ErrNotStarted = errors.New("mock recognizer not started")

// SimulatedUtterance is one spoken phrase.
type SimulatedUtterance struct {
	Partials []string // Progressive interim transcripts
	Final    string   // Final transcript text
}

// Utterances builds simulated utterances from final phrases, deriving each
// interim transcript from a growing prefix of the phrase's words.
func Utterances(phrases ...string) []SimulatedUtterance {
	out := make([]SimulatedUtterance, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, SimulatedUtterance{Partials: prefixes(p), Final: p})
	}
	return out
}

// PlaybackConfig controls scripted playback.
type PlaybackConfig struct {
	Utterances        []SimulatedUtterance
	Interval          time.Duration // Delay between emitted results
	SessionUtterances int           // Utterances per engine session before it ends itself, 0 = never
}

// Recognizer implements stt.Recognizer without audio.
type Recognizer struct {
	mu       sync.Mutex
	listener stt.Listener
	opts     stt.Options
	denied   bool
	startErr error
	starts   int
	stops    int
	active   bool

	playback PlaybackConfig
	cursor   int
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a recognizer driven by hand through the Emit helpers.
func New() *Recognizer {
	return &Recognizer{done: make(chan struct{})}
}

// NewPlayback creates a recognizer that plays utterances back on its own
// once started.
func NewPlayback(cfg PlaybackConfig) *Recognizer {
	r := New()
	r.playback = cfg
	return r
}

// Deny makes Authorize report that access was refused.
func (r *Recognizer) Deny() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denied = true
}

// FailStart makes subsequent Start calls return err.
func (r *Recognizer) FailStart(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

// Authorize reports whether access is granted.
func (r *Recognizer) Authorize(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.denied, nil
}

// Start records the listener and, in playback mode, starts emitting events.
func (r *Recognizer) Start(ctx context.Context, opts stt.Options, l stt.Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.startErr != nil {
		return r.startErr
	}

	r.listener = l
	r.opts = opts
	r.starts++
	r.active = true

	if len(r.playback.Utterances) > 0 {
		playCtx, cancel := context.WithCancel(ctx)
		r.cancel = cancel
		go r.play(playCtx, l)
	}
	return nil
}

// Stop ends the session. In playback mode the end event follows asynchronously.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stops++
	r.active = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return nil
}

// Starts returns how many times Start succeeded.
func (r *Recognizer) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// Stops returns how many times Stop was called.
func (r *Recognizer) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// Active returns true between Start and Stop.
func (r *Recognizer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Options returns the options of the last Start.
func (r *Recognizer) Options() stt.Options {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts
}

// Done is closed once playback has emitted every utterance.
func (r *Recognizer) Done() <-chan struct{} {
	return r.done
}

// EmitStart delivers a start event.
func (r *Recognizer) EmitStart() error {
	l, err := r.current()
	if err != nil {
		return err
	}
	l.OnStart()
	return nil
}

// EmitResult delivers a transcript.
func (r *Recognizer) EmitResult(transcript string, isFinal bool) error {
	l, err := r.current()
	if err != nil {
		return err
	}
	l.OnResult(transcript, isFinal)
	return nil
}

// EmitError delivers an error event.
func (r *Recognizer) EmitError(code stt.ErrorCode, message string) error {
	l, err := r.current()
	if err != nil {
		return err
	}
	l.OnError(&stt.Error{Code: code, Message: message})
	return nil
}

// EmitEnd delivers an end event and marks the session inactive.
func (r *Recognizer) EmitEnd() error {
	r.mu.Lock()
	r.active = false
	r.mu.Unlock()

	l, err := r.current()
	if err != nil {
		return err
	}
	l.OnEnd()
	return nil
}

func (r *Recognizer) current() (stt.Listener, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil, ErrNotStarted
	}
	return r.listener, nil
}

// play emits one engine session worth of utterances, then an end event.
// It stays silent once every utterance was played, until stopped.
func (r *Recognizer) play(ctx context.Context, l stt.Listener) {
	defer l.OnEnd()

	if !r.wait(ctx) {
		return
	}
	l.OnStart()

	played := 0
	for {
		r.mu.Lock()
		if r.cursor >= len(r.playback.Utterances) {
			r.mu.Unlock()
			r.doneOnce.Do(func() { close(r.done) })
			<-ctx.Done()
			return
		}
		utt := r.playback.Utterances[r.cursor]
		r.cursor++
		r.mu.Unlock()

		for _, partial := range utt.Partials {
			if !r.wait(ctx) {
				return
			}
			l.OnResult(partial, false)
		}
		if !r.wait(ctx) {
			return
		}
		l.OnResult(utt.Final, true)

		played++
		if n := r.playback.SessionUtterances; n > 0 && played >= n {
			r.mu.Lock()
			r.active = false
			r.mu.Unlock()
			return
		}
	}
}

func (r *Recognizer) wait(ctx context.Context) bool {
	if r.playback.Interval <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.playback.Interval):
		return true
	}
}
