// Package google provides a Google Cloud Speech-to-Text recognizer.
//
// Streaming sessions are bounded by the service (about five minutes) and end
// on their own; the supervisor restarts them. Audio comes from an io.Reader
// paced in real time, and every session continues where the previous one
// stopped reading.
package google

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"teleprompter-tracker/internal/observability/logging"
	"teleprompter-tracker/internal/observability/metrics"
	"teleprompter-tracker/internal/service/stt"
)

// ErrSessionActive is returned by Start while a session is still running.
var ErrSessionActive = errors.New("recognition session already active")

// StreamOpener opens a bidirectional recognition stream.
type StreamOpener func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error)

// Recognizer implements stt.Recognizer using Google Cloud Speech-to-Text.
type Recognizer struct {
	cfg    Config
	open   StreamOpener
	audio  io.Reader
	client *speech.Client
	logger zerolog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	active   bool
	drained  bool
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a recognizer streaming audio to Google.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config, audio io.Reader) (*Recognizer, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	r := NewWithOpener(cfg, audio, func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
		return c.StreamingRecognize(ctx)
	})
	r.client = c
	return r, nil
}

// NewWithOpener creates a recognizer on a custom stream opener.
func NewWithOpener(cfg Config, audio io.Reader, open StreamOpener) *Recognizer {
	return &Recognizer{
		cfg:    cfg,
		open:   open,
		audio:  audio,
		logger: logging.WithComponent("stt-google"),
		done:   make(chan struct{}),
	}
}

// Authorize reports whether the service can be used. Credentials were
// already checked when the client was created.
func (r *Recognizer) Authorize(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Start opens a stream, sends the streaming config and begins sending audio.
func (r *Recognizer) Start(ctx context.Context, opts stt.Options, l stt.Listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return ErrSessionActive
	}

	sessCtx, cancel := context.WithCancel(ctx)
	stream, err := r.open(sessCtx)
	if err != nil {
		cancel()
		return err
	}

	language := opts.Locale
	if language == "" {
		language = r.cfg.LanguageCode
	}

	// Send streaming config as the first message
	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   parseAudioEncoding(r.cfg.AudioEncoding),
					SampleRateHertz:            int32(r.cfg.SampleRateHz),
					LanguageCode:               language,
					EnableAutomaticPunctuation: true,
				},
				InterimResults:  opts.InterimResults && r.cfg.InterimResults,
				SingleUtterance: !opts.Continuous,
			},
		},
	})
	if err != nil {
		cancel()
		return err
	}

	r.active = true
	r.cancel = cancel
	logger := logging.WithSession(uuid.NewString(), "google")

	logger.Info().
		Str("language", language).
		Int("sampleRateHz", r.cfg.SampleRateHz).
		Str("encoding", r.cfg.AudioEncoding).
		Msg("Streaming recognition started")

	go r.run(sessCtx, cancel, stream, l, logger)
	return nil
}

// Stop cancels the current stream. The session's end event follows.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

// Done is closed once a session ended after the audio was exhausted.
func (r *Recognizer) Done() <-chan struct{} {
	return r.done
}

// Close releases the Google client.
func (r *Recognizer) Close() error {
	r.Stop()
	if r.client != nil {
		r.logger.Debug().Msg("Closing Google Speech client")
		return r.client.Close()
	}
	return nil
}

func (r *Recognizer) run(ctx context.Context, cancel context.CancelFunc, stream speechpb.Speech_StreamingRecognizeClient, l stt.Listener, logger zerolog.Logger) {
	l.OnStart()

	sendErr := make(chan error, 1)
	go func() {
		err := r.sendAudio(ctx, stream)
		if err != nil {
			cancel()
		}
		sendErr <- err
	}()

	var recvErr *stt.Error
	for {
		resp, err := stream.Recv()
		if err != nil {
			if code, ok := errorCode(err); ok {
				recvErr = &stt.Error{Code: code, Message: err.Error()}
			}
			break
		}
		if st := resp.GetError(); st != nil && st.GetCode() != int32(codes.OK) {
			if code, ok := statusCode(codes.Code(st.GetCode())); ok {
				recvErr = &stt.Error{Code: code, Message: st.GetMessage()}
			}
			break
		}
		for _, result := range resp.GetResults() {
			alts := result.GetAlternatives()
			if len(alts) == 0 {
				continue
			}
			l.OnResult(alts[0].GetTranscript(), result.GetIsFinal())
		}
	}

	cancel()
	if err := <-sendErr; err != nil && recvErr == nil {
		recvErr = &stt.Error{Code: stt.ErrorAudioCapture, Message: err.Error()}
	}
	if recvErr != nil {
		logger.Warn().Str("code", string(recvErr.Code)).Str("message", recvErr.Message).Msg("Recognition error")
		l.OnError(recvErr)
	}

	r.mu.Lock()
	r.active = false
	r.cancel = nil
	drained := r.drained
	r.mu.Unlock()

	logger.Info().Bool("audioDrained", drained).Msg("Streaming recognition ended")
	l.OnEnd()

	if drained {
		r.doneOnce.Do(func() { close(r.done) })
	}
}

// sendAudio sends paced audio chunks until the audio is exhausted or ctx is
// cancelled. Only audio read failures are returned.
func (r *Recognizer) sendAudio(ctx context.Context, stream speechpb.Speech_StreamingRecognizeClient) error {
	defer stream.CloseSend()

	if r.audio == nil {
		r.markDrained()
		return nil
	}

	interval := time.Duration(r.cfg.ChunkMillis) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	chunk := make([]byte, r.cfg.chunkBytes())
	for {
		n, err := r.audio.Read(chunk)
		if n > 0 {
			if sendErr := stream.Send(&speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
					AudioContent: append([]byte(nil), chunk[:n]...),
				},
			}); sendErr != nil {
				// The receive side reports why the stream broke.
				return nil
			}
			metrics.DefaultMetrics.RecordAudioSent(n)
		}
		if errors.Is(err, io.EOF) {
			r.markDrained()
			return nil
		}
		if err != nil {
			return err
		}

		// Simulate real-time streaming
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Recognizer) markDrained() {
	r.mu.Lock()
	r.drained = true
	r.mu.Unlock()
}

// errorCode maps a stream error to an stt.ErrorCode. It returns false when
// the error only marks the end of the session.
func errorCode(err error) (stt.ErrorCode, bool) {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return "", false
	}
	return statusCode(status.Code(err))
}

// statusCode maps a gRPC status code to an stt.ErrorCode. The stream length
// limit and cancellation end the session without an error.
func statusCode(c codes.Code) (stt.ErrorCode, bool) {
	switch c {
	case codes.OK, codes.Canceled, codes.OutOfRange, codes.DeadlineExceeded:
		return "", false
	case codes.Unavailable, codes.Aborted, codes.ResourceExhausted:
		return stt.ErrorNetwork, true
	case codes.PermissionDenied, codes.Unauthenticated:
		return stt.ErrorServiceNotAllowed, true
	default:
		return stt.ErrorOther, true
	}
}
