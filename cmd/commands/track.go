package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"teleprompter-tracker/internal/events"
	apihttp "teleprompter-tracker/internal/http"
	"teleprompter-tracker/internal/observability"
	"teleprompter-tracker/internal/script"
	"teleprompter-tracker/internal/service/stt"
	"teleprompter-tracker/internal/service/stt/google"
	"teleprompter-tracker/internal/service/stt/mock"
	"teleprompter-tracker/internal/service/tracker"
)

const shutdownTimeout = 10 * time.Second

var (
	trackScript            string
	trackAudio             string
	trackTranscript        string
	trackInterval          time.Duration
	trackSessionUtterances int
	trackServe             bool
)

// finiteRecognizer is a recognizer whose input runs out.
type finiteRecognizer interface {
	stt.Recognizer
	Done() <-chan struct{}
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Follow a reading of a script and publish the reader's position",
	Long: `Track runs a tracker over a script. With STT_PROVIDER=mock (the default)
the reading is simulated from --transcript, one utterance per line, or from the
script's own sentences. With STT_PROVIDER=google the --audio WAV file is
streamed to Google Cloud Speech in real time.

Positions are logged, published to Kafka when KAFKA_ENABLED=true and served
on HTTP_ADDR under /v1/position, with live updates on the /v1/ws WebSocket.
The final position is printed as JSON.`,
	Args: cobra.NoArgs,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackScript, "script", "", "script text file (required)")
	trackCmd.Flags().StringVar(&trackAudio, "audio", "", "WAV file to recognize (google provider)")
	trackCmd.Flags().StringVar(&trackTranscript, "transcript", "", "utterances to simulate, one per line (mock provider)")
	trackCmd.Flags().DurationVar(&trackInterval, "interval", 250*time.Millisecond, "delay between simulated results")
	trackCmd.Flags().IntVar(&trackSessionUtterances, "session-utterances", 3, "utterances per simulated engine session, 0 = never end")
	trackCmd.Flags().BoolVar(&trackServe, "serve", true, "serve the status API while tracking")
	_ = trackCmd.MarkFlagRequired("script")
}

func runTrack(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := application.Start(); err != nil {
		return err
	}
	defer application.Shutdown()

	tokens, err := loadScript(trackScript)
	if err != nil {
		return err
	}

	rec, closeRec, err := newRecognizer(ctx, tokens)
	if err != nil {
		return err
	}
	defer closeRec()

	publisher := events.New(application.EventsConfig())
	defer publisher.Close()

	cfg := application.TrackerConfig()
	cfg.ID = uuid.NewString()

	var tr *tracker.Tracker
	notifier := events.NewNotifier(publisher, cfg.ID, func(i int) string {
		return wordAt(tr.Tokens(), i)
	}, 0)

	ended := make(chan struct{}, 1)
	logger := application.Logger.With().Str("trackerId", cfg.ID).Logger()
	hub := apihttp.NewHub(cfg.ID)
	subscribers := tracker.Fanout{notifier, logSubscriber(logger, ended)}
	if trackServe {
		subscribers = append(subscribers, hub)
	}
	tr = tracker.New(tokens, rec, subscribers, cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return notifier.Run(gctx) })

	if trackServe {
		server := observability.NewServer(application.Cfg.Service.HTTPAddr, apihttp.NewRouter(application, tr, hub))
		g.Go(func() error { return hub.Run(gctx) })
		g.Go(server.Run)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// Cancels the group once the reading is over.
		defer cancel()

		if err := tr.Start(gctx); err != nil {
			return err
		}
		select {
		case <-ended:
			// A fatal error ended recognition.
			return nil
		case <-rec.Done():
		case <-gctx.Done():
		}
		if err := tr.Stop(); err != nil {
			return err
		}
		select {
		case <-ended:
		case <-time.After(shutdownTimeout):
			logger.Warn().Msg("Recognizer did not report its end")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		TrackerID string           `json:"trackerId"`
		Position  tracker.Position `json:"position"`
		Word      string           `json:"word,omitempty"`
	}{cfg.ID, tr.Position(), wordAt(tokens, tr.Position().End)})
}

// newRecognizer builds the configured recognizer and a cleanup func.
func newRecognizer(ctx context.Context, tokens []script.Token) (finiteRecognizer, func(), error) {
	switch provider := application.Cfg.STT.Provider; provider {
	case "google":
		if trackAudio == "" {
			return nil, nil, errors.New("the google provider needs --audio")
		}
		wav, err := google.OpenWAV(trackAudio)
		if err != nil {
			return nil, nil, err
		}
		gcfg := application.GoogleConfig()
		if int(wav.Header.SampleRate) != gcfg.SampleRateHz {
			application.Logger.Warn().
				Uint32("wavSampleRate", wav.Header.SampleRate).
				Int("configuredSampleRate", gcfg.SampleRateHz).
				Msg("Sample rate mismatch, using the file's rate")
			gcfg.SampleRateHz = int(wav.Header.SampleRate)
		}
		rec, err := google.New(ctx, gcfg, wav)
		if err != nil {
			wav.Close()
			return nil, nil, fmt.Errorf("create google recognizer: %w", err)
		}
		return rec, func() {
			rec.Close()
			wav.Close()
		}, nil

	case "mock", "":
		phrases, err := simulatedPhrases(tokens)
		if err != nil {
			return nil, nil, err
		}
		rec := mock.NewPlayback(mock.PlaybackConfig{
			Utterances:        mock.Utterances(phrases...),
			Interval:          trackInterval,
			SessionUtterances: trackSessionUtterances,
		})
		return rec, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STT provider %q", provider)
	}
}

func simulatedPhrases(tokens []script.Token) ([]string, error) {
	if trackTranscript == "" {
		phrases := script.Sentences(tokens)
		if len(phrases) == 0 {
			return nil, errors.New("script has no words to read")
		}
		return phrases, nil
	}

	data, err := os.ReadFile(trackTranscript)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var phrases []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			phrases = append(phrases, line)
		}
	}
	if len(phrases) == 0 {
		return nil, errors.New("transcript is empty")
	}
	return phrases, nil
}

// logSubscriber logs tracker notifications and signals the end of a run.
func logSubscriber(logger zerolog.Logger, ended chan<- struct{}) tracker.Subscriber {
	return tracker.Funcs{
		Start: func() {
			logger.Info().Msg("Listening")
		},
		PositionUpdate: func(p tracker.Position) {
			logger.Info().
				Int("start", p.Start).
				Int("search", p.Search).
				Int("end", p.End).
				Int("bounds", p.Bounds).
				Msg("Position updated")
		},
		Error: func(err error) {
			logger.Warn().Err(err).Msg("Recognition error")
		},
		End: func() {
			logger.Info().Msg("Recognition ended")
			select {
			case ended <- struct{}{}:
			default:
			}
		},
	}
}

func wordAt(tokens []script.Token, i int) string {
	if i >= 0 && i < len(tokens) {
		return tokens[i].Text
	}
	return ""
}
