package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"teleprompter-tracker/internal/service/stt"
)

// testListener implements stt.Listener for testing
type testListener struct {
	mu     sync.Mutex
	events []string
	ended  chan struct{}
}

func newTestListener() *testListener {
	return &testListener{ended: make(chan struct{}, 16)}
}

func (l *testListener) OnStart() { l.record("start") }

func (l *testListener) OnResult(transcript string, isFinal bool) {
	if isFinal {
		l.record("final:" + transcript)
		return
	}
	l.record("interim:" + transcript)
}

func (l *testListener) OnError(err *stt.Error) { l.record("error:" + string(err.Code)) }

func (l *testListener) OnEnd() {
	l.record("end")
	l.ended <- struct{}{}
}

func (l *testListener) record(ev string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *testListener) getEvents() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.events...)
}

func TestRecognizer_EmitBeforeStart(t *testing.T) {
	r := New()
	if err := r.EmitResult("hello", true); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestRecognizer_ManualEvents(t *testing.T) {
	r := New()
	l := newTestListener()

	if err := r.Start(context.Background(), stt.DefaultOptions(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Active() {
		t.Error("expected recognizer to be active after start")
	}

	r.EmitStart()
	r.EmitResult("hello there", false)
	r.EmitResult("hello there friend", true)
	r.EmitError(stt.ErrorNetwork, "")
	r.EmitEnd()

	want := []string{"start", "interim:hello there", "final:hello there friend", "error:network", "end"}
	if diff := cmp.Diff(want, l.getEvents()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if r.Active() {
		t.Error("expected recognizer to be inactive after end")
	}
	if r.Options() != stt.DefaultOptions() {
		t.Errorf("unexpected options %+v", r.Options())
	}
}

func TestRecognizer_Authorize(t *testing.T) {
	r := New()

	ok, err := r.Authorize(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected access granted, got %v, %v", ok, err)
	}

	r.Deny()
	ok, err = r.Authorize(context.Background())
	if err != nil || ok {
		t.Fatalf("expected access denied without error, got %v, %v", ok, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Authorize(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRecognizer_FailStart(t *testing.T) {
	r := New()
	boom := fmt.Errorf("engine unavailable")
	r.FailStart(boom)

	if err := r.Start(context.Background(), stt.DefaultOptions(), newTestListener()); !errors.Is(err, boom) {
		t.Errorf("expected start error, got %v", err)
	}
	if r.Starts() != 0 {
		t.Errorf("expected no recorded start, got %d", r.Starts())
	}
}

func TestRecognizer_CountsStartsAndStops(t *testing.T) {
	r := New()
	l := newTestListener()

	r.Start(context.Background(), stt.DefaultOptions(), l)
	r.Stop()
	r.Start(context.Background(), stt.DefaultOptions(), l)

	if r.Starts() != 2 {
		t.Errorf("expected 2 starts, got %d", r.Starts())
	}
	if r.Stops() != 1 {
		t.Errorf("expected 1 stop, got %d", r.Stops())
	}
}

func TestRecognizer_PlaybackEndsSessionAfterLimit(t *testing.T) {
	r := NewPlayback(PlaybackConfig{
		Utterances:        Utterances("one two three", "four five", "six"),
		SessionUtterances: 2,
	})
	l := newTestListener()

	r.Start(context.Background(), stt.DefaultOptions(), l)

	select {
	case <-l.ended:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the session to end itself")
	}

	want := []string{
		"start",
		"interim:one", "interim:one two", "final:one two three",
		"interim:four", "final:four five",
		"end",
	}
	if diff := cmp.Diff(want, l.getEvents()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRecognizer_PlaybackContinuesAfterRestart(t *testing.T) {
	r := NewPlayback(PlaybackConfig{
		Utterances:        Utterances("one two", "three"),
		SessionUtterances: 1,
	})
	l := newTestListener()

	r.Start(context.Background(), stt.DefaultOptions(), l)
	<-l.ended
	r.Start(context.Background(), stt.DefaultOptions(), l)

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for playback to finish")
	}

	r.Stop()
	select {
	case <-l.ended:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for end after stop")
	}

	want := []string{
		"start", "interim:one", "final:one two", "end",
		"start", "final:three", "end",
	}
	if diff := cmp.Diff(want, l.getEvents()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRecognizer_PlaybackStop(t *testing.T) {
	r := NewPlayback(PlaybackConfig{
		Utterances: Utterances("one two three four five six seven"),
		Interval:   time.Hour,
	})
	l := newTestListener()

	r.Start(context.Background(), stt.DefaultOptions(), l)
	r.Stop()

	select {
	case <-l.ended:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for end after stop")
	}

	if diff := cmp.Diff([]string{"end"}, l.getEvents()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestUtterances(t *testing.T) {
	got := Utterances("read this line", "go")
	want := []SimulatedUtterance{
		{Partials: []string{"read", "read this"}, Final: "read this line"},
		{Final: "go"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Utterances mismatch (-want +got):\n%s", diff)
	}
}
