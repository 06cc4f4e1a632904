package google

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"teleprompter-tracker/internal/service/stt"
)

// fakeStream implements speechpb.Speech_StreamingRecognizeClient for testing
type fakeStream struct {
	grpc.ClientStream

	ctx       context.Context
	responses chan *speechpb.StreamingRecognizeResponse
	recvErr   error

	mu     sync.Mutex
	sent   []*speechpb.StreamingRecognizeRequest
	closed bool
}

func newFakeStream(ctx context.Context, recvErr error, responses ...*speechpb.StreamingRecognizeResponse) *fakeStream {
	ch := make(chan *speechpb.StreamingRecognizeResponse, len(responses))
	for _, r := range responses {
		ch <- r
	}
	close(ch)
	return &fakeStream{ctx: ctx, responses: ch, recvErr: recvErr}
}

func (s *fakeStream) Send(req *speechpb.StreamingRecognizeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
	return nil
}

func (s *fakeStream) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) Recv() (*speechpb.StreamingRecognizeResponse, error) {
	if resp, ok := <-s.responses; ok {
		return resp, nil
	}
	if s.recvErr != nil {
		return nil, s.recvErr
	}
	<-s.ctx.Done()
	return nil, status.Error(codes.Canceled, "context canceled")
}

func (s *fakeStream) requests() []*speechpb.StreamingRecognizeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*speechpb.StreamingRecognizeRequest{}, s.sent...)
}

// testListener implements stt.Listener for testing
type testListener struct {
	mu     sync.Mutex
	events []string
	ended  chan struct{}
}

func newTestListener() *testListener {
	return &testListener{ended: make(chan struct{}, 4)}
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

func (l *testListener) waitEnd(t *testing.T) {
	t.Helper()
	select {
	case <-l.ended:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for end")
	}
}

func result(transcript string, isFinal bool) *speechpb.StreamingRecognizeResponse {
	return &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: transcript}},
			IsFinal:      isFinal,
		}},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ChunkMillis = 1
	return cfg
}

// opener returns a StreamOpener that builds one stream per call via build.
func opener(build func(ctx context.Context) *fakeStream, streams *[]*fakeStream) StreamOpener {
	return func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
		s := build(ctx)
		*streams = append(*streams, s)
		return s, nil
	}
}

func TestRecognizer_StreamsResults(t *testing.T) {
	var streams []*fakeStream
	audio := bytes.NewReader(make([]byte, 100))
	r := NewWithOpener(testConfig(), audio, opener(func(ctx context.Context) *fakeStream {
		return newFakeStream(ctx, io.EOF,
			result("hello", false),
			&speechpb.StreamingRecognizeResponse{Results: []*speechpb.StreamingRecognitionResult{{IsFinal: true}}},
			result("hello world", true),
		)
	}, &streams))
	l := newTestListener()

	opts := stt.Options{Locale: "de-DE", InterimResults: true, Continuous: true}
	if err := r.Start(context.Background(), opts, l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.waitEnd(t)

	events := []string{"start", "interim:hello", "final:hello world", "end"}
	if diff := cmp.Diff(events, l.getEvents()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	reqs := streams[0].requests()
	if len(reqs) == 0 {
		t.Fatal("expected a config request")
	}
	sc := reqs[0].GetStreamingConfig()
	if sc == nil {
		t.Fatal("expected the first request to carry the streaming config")
	}
	want := &speechpb.StreamingRecognitionConfig{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            16000,
			LanguageCode:               "de-DE",
			EnableAutomaticPunctuation: true,
		},
		InterimResults: true,
	}
	if !proto.Equal(want, sc) {
		t.Errorf("streaming config = %v, want %v", sc, want)
	}
}

func TestRecognizer_SendsAudioAndSignalsDone(t *testing.T) {
	var streams []*fakeStream
	audio := bytes.NewReader(make([]byte, 80)) // 16kHz, 1ms chunks of 32 bytes
	r := NewWithOpener(testConfig(), audio, opener(func(ctx context.Context) *fakeStream {
		return newFakeStream(ctx, nil)
	}, &streams))
	l := newTestListener()

	if err := r.Start(context.Background(), stt.DefaultOptions(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The fake stream only ends when cancelled.
	deadline := time.After(2 * time.Second)
	for {
		streams[0].mu.Lock()
		closed := streams[0].closed
		streams[0].mu.Unlock()
		if closed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for audio to be sent")
		case <-time.After(time.Millisecond):
		}
	}
	r.Stop()
	l.waitEnd(t)

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected Done after audio was exhausted")
	}

	var total int
	for _, req := range streams[0].requests()[1:] {
		total += len(req.GetAudioContent())
	}
	if total != 80 {
		t.Errorf("expected 80 audio bytes sent, got %d", total)
	}
	if diff := cmp.Diff([]string{"start", "end"}, l.getEvents()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRecognizer_ReportsStreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"unavailable", status.Error(codes.Unavailable, "connection reset"), []string{"start", "error:network", "end"}},
		{"permission", status.Error(codes.PermissionDenied, "api disabled"), []string{"start", "error:service-not-allowed", "end"}},
		{"stream limit", status.Error(codes.OutOfRange, "exceeded maximum allowed stream duration"), []string{"start", "end"}},
		{"eof", io.EOF, []string{"start", "end"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var streams []*fakeStream
			r := NewWithOpener(testConfig(), nil, opener(func(ctx context.Context) *fakeStream {
				return newFakeStream(ctx, tt.err)
			}, &streams))
			l := newTestListener()

			if err := r.Start(context.Background(), stt.DefaultOptions(), l); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			l.waitEnd(t)

			if diff := cmp.Diff(tt.want, l.getEvents()); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecognizer_ResponseError(t *testing.T) {
	var streams []*fakeStream
	r := NewWithOpener(testConfig(), nil, opener(func(ctx context.Context) *fakeStream {
		resp := &speechpb.StreamingRecognizeResponse{}
		resp.Error = status.New(codes.Unauthenticated, "bad credentials").Proto()
		return newFakeStream(ctx, nil, resp)
	}, &streams))
	l := newTestListener()

	r.Start(context.Background(), stt.DefaultOptions(), l)
	l.waitEnd(t)

	want := []string{"start", "error:service-not-allowed", "end"}
	if diff := cmp.Diff(want, l.getEvents()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestRecognizer_AudioReadFailure(t *testing.T) {
	var streams []*fakeStream
	r := NewWithOpener(testConfig(), failingReader{}, opener(func(ctx context.Context) *fakeStream {
		return newFakeStream(ctx, nil)
	}, &streams))
	l := newTestListener()

	r.Start(context.Background(), stt.DefaultOptions(), l)
	// A failed read cancels the session, which ends the fake stream.
	l.waitEnd(t)

	want := []string{"start", "error:audio-capture", "end"}
	if diff := cmp.Diff(want, l.getEvents()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRecognizer_StartWhileActive(t *testing.T) {
	var streams []*fakeStream
	r := NewWithOpener(testConfig(), nil, opener(func(ctx context.Context) *fakeStream {
		return newFakeStream(ctx, nil)
	}, &streams))
	l := newTestListener()

	if err := r.Start(context.Background(), stt.DefaultOptions(), l); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Start(context.Background(), stt.DefaultOptions(), l); !errors.Is(err, ErrSessionActive) {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}

	r.Stop()
	l.waitEnd(t)
}

func TestRecognizer_OpenFailure(t *testing.T) {
	boom := errors.New("dial failed")
	r := NewWithOpener(testConfig(), nil, func(context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
		return nil, boom
	})

	if err := r.Start(context.Background(), stt.DefaultOptions(), newTestListener()); !errors.Is(err, boom) {
		t.Errorf("expected open error, got %v", err)
	}
}

func TestRecognizer_Authorize(t *testing.T) {
	r := NewWithOpener(testConfig(), nil, nil)

	if ok, err := r.Authorize(context.Background()); !ok || err != nil {
		t.Errorf("expected access granted, got %v, %v", ok, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Authorize(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
