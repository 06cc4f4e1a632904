// Package supervisor keeps a continuous speech recognition run alive.
//
// Recognition engines end their sessions on their own from time to time. The
// supervisor restarts them transparently while the caller intends to keep
// listening, tells a caller-initiated stop apart from an engine-initiated
// end, classifies engine errors as fatal or recoverable and halts runs whose
// engine keeps terminating faster than it can be usefully restarted.
//
// Engine events and debounced restarts are handled one at a time, in arrival
// order.
package supervisor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"teleprompter-tracker/internal/observability/logging"
	"teleprompter-tracker/internal/observability/metrics"
	"teleprompter-tracker/internal/service/stt"
)

// Config holds the restart policy and the engine options.
type Config struct {
	RestartWindow      time.Duration // Trailing window of the restart ledger
	MaxRestarts        int           // Restarts tolerated within RestartWindow
	MinSessionDuration time.Duration // Sessions ending sooner are restarted after a delay
	Options            stt.Options
}

// DefaultConfig returns the default restart policy.
func DefaultConfig() Config {
	return Config{
		RestartWindow:      60 * time.Second,
		MaxRestarts:        60,
		MinSessionDuration: time.Second,
		Options:            stt.DefaultOptions(),
	}
}

// Observer receives the supervised run's events.
// Transparent restarts are not reported. Observer methods must not call
// Start on the same supervisor.
type Observer interface {
	// OnSessionStart is called every time the engine begins listening.
	OnSessionStart()

	// OnTranscript is called with each result received while running.
	OnTranscript(text string, isFinal bool)

	// OnSessionError is called with classified errors. Use IsFatal to tell
	// whether the run was stopped.
	OnSessionError(err error)

	// OnSessionEnd is called once the run has ended.
	OnSessionEnd()
}

// Supervisor wraps a Recognizer and restarts it while running.
type Supervisor struct {
	recognizer stt.Recognizer
	observer   Observer
	cfg        Config
	clock      Clock
	logger     zerolog.Logger

	// dispatchMu serializes engine events and debounced restarts.
	dispatchMu sync.Mutex

	mu           sync.Mutex
	state        State
	running      bool
	generation   uint64    // incremented on every engine session start
	runStartedAt time.Time // set by Start, restarts keep it
	ledger       []time.Time
	pending      Timer
	ctx          context.Context
	cancel       context.CancelFunc
	transcript   []string
}

// New creates a supervisor running on the wall clock.
func New(recognizer stt.Recognizer, observer Observer, cfg Config) *Supervisor {
	return NewWithClock(recognizer, observer, cfg, RealClock{})
}

// NewWithClock creates a supervisor driven by clock.
func NewWithClock(recognizer stt.Recognizer, observer Observer, cfg Config, clock Clock) *Supervisor {
	d := DefaultConfig()
	if cfg.RestartWindow <= 0 {
		cfg.RestartWindow = d.RestartWindow
	}
	if cfg.MaxRestarts <= 0 {
		cfg.MaxRestarts = d.MaxRestarts
	}
	if cfg.MinSessionDuration < 0 {
		cfg.MinSessionDuration = d.MinSessionDuration
	}
	if cfg.Options.Locale == "" {
		cfg.Options = d.Options
	}
	return &Supervisor{
		recognizer: recognizer,
		observer:   observer,
		cfg:        cfg,
		clock:      clock,
		logger:     logging.WithComponent("supervisor"),
		state:      StateIdle,
	}
}

// SetLogger replaces the supervisor's logger. Call before Start.
func (s *Supervisor) SetLogger(logger zerolog.Logger) {
	s.logger = logger
}

// Start authorizes the engine and begins a run.
// It returns ErrPermissionDenied without starting when access is refused.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.mu.Unlock()

	ok, err := s.recognizer.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("authorize recognizer: %w", err)
	}
	if !ok {
		s.logger.Warn().Msg("Recognizer access denied")
		return ErrPermissionDenied
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.state = StateListening
	s.ctx = runCtx
	s.cancel = cancel
	s.ledger = nil
	s.transcript = nil
	s.generation++
	gen := s.generation
	s.runStartedAt = s.clock.Now()
	metrics.DefaultMetrics.RecordSessionStart()
	s.mu.Unlock()

	if err := s.recognizer.Start(runCtx, s.cfg.Options, &session{s: s, gen: gen}); err != nil {
		s.mu.Lock()
		s.halt(StateStopped)
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("start recognizer: %w", err)
	}

	s.logger.Info().
		Str("locale", s.cfg.Options.Locale).
		Bool("interimResults", s.cfg.Options.InterimResults).
		Bool("continuous", s.cfg.Options.Continuous).
		Msg("Recognition started")
	return nil
}

// Stop ends the run. Any pending restart is cancelled before the engine is
// told to stop; the engine's end event then reaches the observer.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	wasPending := s.state == StateRestartPending
	cancel := s.cancel
	s.halt(StateStopped)
	s.mu.Unlock()

	s.logger.Info().Bool("restartPending", wasPending).Msg("Recognition stopped")

	err := s.recognizer.Stop()
	if cancel != nil {
		cancel()
	}

	// No engine session is live to answer with an end event.
	if wasPending {
		s.observer.OnSessionEnd()
	}

	if err != nil {
		return fmt.Errorf("stop recognizer: %w", err)
	}
	return nil
}

// Running returns true while the caller intends to keep listening.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the final results of the current run, space separated.
func (s *Supervisor) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.transcript, " ")
}

// Restarts returns the number of restarts in the ledger.
func (s *Supervisor) Restarts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ledger)
}

// halt marks the run as ended. Caller must hold s.mu.
func (s *Supervisor) halt(state State) {
	if s.running {
		metrics.DefaultMetrics.RecordSessionEnd()
	}
	s.running = false
	s.state = state
	s.ledger = nil
	s.transcript = nil
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// current reports whether an event from engine session gen should be handled.
// Caller must hold s.mu.
func (s *Supervisor) current(gen uint64) bool {
	return gen == s.generation
}

func (s *Supervisor) handleStart(gen uint64) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	ok := s.current(gen) && s.running
	s.mu.Unlock()
	if !ok {
		return
	}

	s.logger.Debug().Uint64("session", gen).Msg("Engine session started")
	s.observer.OnSessionStart()
}

func (s *Supervisor) handleResult(gen uint64, transcript string, isFinal bool) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if !s.current(gen) || !s.running {
		s.mu.Unlock()
		s.logger.Debug().Bool("isFinal", isFinal).Msg("Dropping result received while stopped")
		return
	}
	if isFinal {
		if t := strings.TrimSpace(transcript); t != "" {
			s.transcript = append(s.transcript, t)
		}
	}
	s.mu.Unlock()

	metrics.DefaultMetrics.RecordResult(isFinal)
	s.observer.OnTranscript(transcript, isFinal)
}

func (s *Supervisor) handleError(gen uint64, e *stt.Error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	metrics.DefaultMetrics.RecordEngineError(string(e.Code))
	engineErr := NewEngineError(e)

	switch {
	case engineErr.Transient():
		s.logger.Warn().Str("code", string(e.Code)).Str("message", e.Message).Msg("Transient engine error")
	case engineErr.Fatal():
		s.logger.Error().Err(engineErr).Msg("Fatal engine error, stopping recognition")
		s.mu.Lock()
		wasRunning := s.running
		cancel := s.cancel
		s.halt(StateStopped)
		s.mu.Unlock()
		if wasRunning {
			if err := s.recognizer.Stop(); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to stop recognizer")
			}
			if cancel != nil {
				cancel()
			}
		}
	default:
		s.logger.Warn().Str("code", string(e.Code)).Str("message", e.Message).Msg("Engine error")
	}

	s.observer.OnSessionError(engineErr)
}

func (s *Supervisor) handleEnd(gen uint64) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		s.logger.Debug().Uint64("session", gen).Msg("Ignoring end of a superseded engine session")
		return
	}

	if !s.running {
		s.mu.Unlock()
		s.observer.OnSessionEnd()
		return
	}

	now := s.clock.Now()
	s.ledger = append(s.ledger, now)
	cutoff := now.Add(-s.cfg.RestartWindow)
	kept := s.ledger[:0]
	for _, t := range s.ledger {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.ledger = kept

	if restarts := len(s.ledger); restarts > s.cfg.MaxRestarts {
		cancel := s.cancel
		s.halt(StateFaulted)
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}

		metrics.DefaultMetrics.RecordRestartLoop()
		s.logger.Error().
			Int("restarts", restarts).
			Dur("window", s.cfg.RestartWindow).
			Msg("Restart loop detected, recognition halted")
		s.observer.OnSessionError(fmt.Errorf("%w: %d restarts within %s", ErrRestartLoop, restarts, s.cfg.RestartWindow))
		s.observer.OnSessionEnd()
		return
	}

	elapsed := now.Sub(s.runStartedAt)
	if elapsed < s.cfg.MinSessionDuration {
		delay := s.cfg.MinSessionDuration - elapsed
		s.state = StateRestartPending
		s.pending = s.clock.AfterFunc(delay, func() { s.restartAfterDelay(gen) })
		s.mu.Unlock()

		s.logger.Debug().Dur("elapsed", elapsed).Dur("delay", delay).Msg("Engine ended soon after start, restart debounced")
		return
	}
	s.mu.Unlock()

	s.restart("immediate")
}

// restartAfterDelay is the debounce timer callback for the end of session gen.
func (s *Supervisor) restartAfterDelay(gen uint64) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	ok := s.running && s.current(gen) && s.state == StateRestartPending
	if ok {
		s.pending = nil
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	s.restart("debounced")
}

// restart starts a new engine session. Caller must hold s.dispatchMu.
func (s *Supervisor) restart(kind string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	s.state = StateListening
	ctx := s.ctx
	restarts := len(s.ledger)
	s.mu.Unlock()

	if err := s.recognizer.Start(ctx, s.cfg.Options, &session{s: s, gen: gen}); err != nil {
		s.mu.Lock()
		cancel := s.cancel
		s.halt(StateStopped)
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}

		s.logger.Error().Err(err).Msg("Failed to restart recognition")
		s.observer.OnSessionError(fmt.Errorf("%w: %w", ErrRestartFailed, err))
		s.observer.OnSessionEnd()
		return
	}

	metrics.DefaultMetrics.RecordRestart(kind)
	s.logger.Info().Str("kind", kind).Int("restarts", restarts).Msg("Recognition restarted")
}

// session is the stt.Listener of one engine session. Events of superseded
// sessions are discarded.
type session struct {
	s   *Supervisor
	gen uint64
}

func (l *session) OnStart() { l.s.handleStart(l.gen) }

func (l *session) OnResult(transcript string, isFinal bool) {
	l.s.handleResult(l.gen, transcript, isFinal)
}

func (l *session) OnError(err *stt.Error) { l.s.handleError(l.gen, err) }

func (l *session) OnEnd() { l.s.handleEnd(l.gen) }
