package align

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTranscriptWindow_FinalAppendsAndTruncates(t *testing.T) {
	w := NewTranscriptWindow(6)

	got := w.Update(strings.Fields("one two three"), true)
	if diff := cmp.Diff(strings.Fields("one two three"), got); diff != "" {
		t.Errorf("first final mismatch (-want +got):\n%s", diff)
	}

	got = w.Update(strings.Fields("four five six seven"), true)
	want := strings.Fields("two three four five six seven")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("second final mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, w.Words()); diff != "" {
		t.Errorf("committed words mismatch (-want +got):\n%s", diff)
	}
}

func TestTranscriptWindow_InterimShortExtendsCommitted(t *testing.T) {
	w := NewTranscriptWindow(6)
	w.Update(strings.Fields("a b c d"), true)

	got := w.Update(strings.Fields("e f g"), false)
	want := strings.Fields("b c d e f g")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("interim query mismatch (-want +got):\n%s", diff)
	}

	// Interim fragments never change the committed window.
	if diff := cmp.Diff(strings.Fields("a b c d"), w.Words()); diff != "" {
		t.Errorf("committed words changed by interim (-want +got):\n%s", diff)
	}
}

func TestTranscriptWindow_InterimLongReplaces(t *testing.T) {
	w := NewTranscriptWindow(6)
	w.Update(strings.Fields("a b c"), true)

	got := w.Update(strings.Fields("one two three four five six seven"), false)
	want := strings.Fields("two three four five six seven")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("interim query mismatch (-want +got):\n%s", diff)
	}
}

func TestTranscriptWindow_Reset(t *testing.T) {
	w := NewTranscriptWindow(6)
	w.Update(strings.Fields("a b c"), true)
	w.Reset()

	if got := w.Words(); len(got) != 0 {
		t.Errorf("expected empty window after reset, got %v", got)
	}
	if got := w.Update([]string{"x"}, false); len(got) != 1 {
		t.Errorf("expected only the interim word after reset, got %v", got)
	}
}

func TestTranscriptWindow_QueryIsACopy(t *testing.T) {
	w := NewTranscriptWindow(3)
	got := w.Update(strings.Fields("a b c"), true)
	got[0] = "mutated"

	if w.Words()[0] != "a" {
		t.Error("mutating the returned query must not change the window")
	}
}
