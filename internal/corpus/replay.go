package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"teleprompter-tracker/internal/script"
	"teleprompter-tracker/internal/service/stt/mock"
	"teleprompter-tracker/internal/service/tracker"
)

// caseTimeout bounds the replay of a single case.
const caseTimeout = 30 * time.Second

// Result is the outcome of replaying one case.
type Result struct {
	Case     string           `json:"case"`
	Expect   int              `json:"expect"`
	Position tracker.Position `json:"position"`
	Word     string           `json:"word"` // Script word at Position.End
	Restarts int              `json:"restarts"`
	Pass     bool             `json:"pass"`
}

// Replay runs every case through its own tracker and reports the final
// positions in case order. Cases run concurrently, at most parallel at a time.
func Replay(ctx context.Context, f *File, cfg tracker.Config, parallel int) ([]Result, error) {
	if parallel <= 0 {
		parallel = 1
	}
	// Recorded sessions end as fast as they are played back.
	cfg.Supervisor.MinSessionDuration = 0

	results := make([]Result, len(f.Cases))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, c := range f.Cases {
		i, c := i, c
		g.Go(func() error {
			r, err := replayCase(ctx, c, cfg)
			if err != nil {
				return fmt.Errorf("corpus: case %q: %w", c.Name, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func replayCase(ctx context.Context, c Case, cfg tracker.Config) (Result, error) {
	tokens := script.Tokenize(c.Script)
	rec := mock.NewPlayback(mock.PlaybackConfig{
		Utterances:        mock.Utterances(c.Utterances...),
		SessionUtterances: c.SessionUtterances,
	})

	ended := make(chan struct{}, 1)
	sub := tracker.Funcs{
		End: func() {
			select {
			case ended <- struct{}{}:
			default:
			}
		},
	}
	t := tracker.New(tokens, rec, sub, cfg)

	if err := t.Start(ctx); err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, caseTimeout)
	defer cancel()

	select {
	case <-rec.Done():
	case <-ctx.Done():
		t.Stop()
		return Result{}, ctx.Err()
	}

	pos := t.Position()
	restarts := rec.Starts() - 1
	t.Stop()

	// Drain the final end event before the tracker is dropped.
	select {
	case <-ended:
	case <-ctx.Done():
	}

	r := Result{
		Case:     c.Name,
		Expect:   c.Expect,
		Position: pos,
		Restarts: restarts,
	}
	if pos.End >= 0 && pos.End < len(tokens) {
		r.Word = tokens[pos.End].Text
		r.Pass = abs(pos.End-c.Expect) <= c.Tolerance
	}

	log.Debug().
		Str("case", c.Name).
		Int("expect", c.Expect).
		Int("end", pos.End).
		Bool("pass", r.Pass).
		Msg("Corpus case replayed")
	return r, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
