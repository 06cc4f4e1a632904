package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"teleprompter-tracker/internal/app"
	"teleprompter-tracker/internal/config"
	"teleprompter-tracker/internal/service/tracker"
)

type fakeTracker struct {
	position tracker.Position
	running  bool
	tokens   int
}

func (f *fakeTracker) ID() string                 { return "tracker-1" }
func (f *fakeTracker) Position() tracker.Position { return f.position }
func (f *fakeTracker) IsRunning() bool            { return f.running }

func (f *fakeTracker) JumpTo(index int) bool {
	if f.tokens == 0 {
		return false
	}
	index = min(max(index, 0), f.tokens-1)
	f.position = tracker.Position{Start: index, Search: index, End: index, Bounds: f.position.Bounds}
	return true
}

func newTestRouter(t TrackerView) http.Handler {
	return NewRouter(app.New(config.Load()), t, nil)
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name    string
		tracker TrackerView
		path    string
		status  int
	}{
		{"liveness", nil, "/v1/liveness", http.StatusOK},
		{"ready with tracker", &fakeTracker{}, "/v1/readiness", http.StatusOK},
		{"not ready without tracker", nil, "/v1/readiness", http.StatusServiceUnavailable},
		{"metrics", nil, "/metrics", http.StatusOK},
		{"unknown route", nil, "/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestRouter(tt.tracker), http.MethodGet, tt.path, "")
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestRouter_Position(t *testing.T) {
	ft := &fakeTracker{
		position: tracker.Position{Start: 2, Search: 2, End: 4, Bounds: 9},
		running:  true,
	}

	rec := serve(newTestRouter(ft), http.MethodGet, "/v1/position", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var got positionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	want := positionResponse{TrackerID: "tracker-1", Running: true, Position: ft.position}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestRouter_PositionWithoutTracker(t *testing.T) {
	rec := serve(newTestRouter(nil), http.MethodGet, "/v1/position", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

func TestRouter_Jump(t *testing.T) {
	tests := []struct {
		name   string
		tokens int
		body   string
		status int
		end    int
	}{
		{"jumps", 10, `{"index": 6}`, http.StatusOK, 6},
		{"clamps", 10, `{"index": 60}`, http.StatusOK, 9},
		{"missing index", 10, `{}`, http.StatusBadRequest, tracker.Unset},
		{"malformed body", 10, `{"index":`, http.StatusBadRequest, tracker.Unset},
		{"empty script", 0, `{"index": 1}`, http.StatusConflict, tracker.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTracker{position: tracker.UnsetPosition(), tokens: tt.tokens}

			rec := serve(newTestRouter(ft), http.MethodPost, "/v1/position/jump", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if ft.position.End != tt.end {
				t.Errorf("expected end %d, got %d", tt.end, ft.position.End)
			}
		})
	}
}
